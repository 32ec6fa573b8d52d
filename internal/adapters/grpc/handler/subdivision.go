package handler

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	"google.golang.org/protobuf/types/known/structpb"
)

type addSubdivisionRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	LeaderID *int64 `json:"leader_id" validate:"omitempty,gt=0"`
}

type renameSubdivisionRequest struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required,max=255"`
}

type assignLeaderRequest struct {
	SubdivisionID int64 `json:"subdivision_id" validate:"required,gt=0"`
	LeaderID      int64 `json:"leader_id" validate:"required,gt=0"`
}

type membershipRequest struct {
	SubdivisionID int64 `json:"subdivision_id" validate:"required,gt=0"`
	EmployeeID    int64 `json:"employee_id" validate:"required,gt=0"`
}

type projectionResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	LeaderID    *int64  `json:"leader_id"`
	EmployeeIDs []int64 `json:"employee_ids"`
}

type deleteSubdivisionResponse struct {
	Detail             string `json:"detail"`
	RemovedMemberships int64  `json:"removed_memberships"`
}

// AddSubdivision は部署を作成します。
func (h *OrgRecordsHandler) AddSubdivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in addSubdivisionRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: in.Name, LeaderID: in.LeaderID})
	return projectionResult(projection, err)
}

// GetSubdivision は部署のプロジェクションを取得します。
func (h *OrgRecordsHandler) GetSubdivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.ReadProjection(ctx, in.ID)
	return projectionResult(projection, err)
}

// RenameSubdivision は部署名を変更します。
func (h *OrgRecordsHandler) RenameSubdivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in renameSubdivisionRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.RenameSubdivision(ctx, subdivision.RenameSubdivisionInput{ID: in.ID, Name: in.Name})
	return projectionResult(projection, err)
}

// AssignLeader は部署のリーダーを設定します。
func (h *OrgRecordsHandler) AssignLeader(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in assignLeaderRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.AssignLeader(ctx, in.SubdivisionID, in.LeaderID)
	return projectionResult(projection, err)
}

// AddMember は社員を部署に所属させます。既に所属している場合も成功します。
func (h *OrgRecordsHandler) AddMember(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in membershipRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.AddMember(ctx, in.SubdivisionID, in.EmployeeID)
	return projectionResult(projection, err)
}

// RemoveMember は社員の部署所属を解除します。
func (h *OrgRecordsHandler) RemoveMember(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in membershipRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	projection, err := h.subdivisions.RemoveMember(ctx, in.SubdivisionID, in.EmployeeID)
	return projectionResult(projection, err)
}

// DeleteSubdivision は部署と所属関係を削除します。社員は削除しません。
func (h *OrgRecordsHandler) DeleteSubdivision(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	removed, err := h.lifecycle.DeleteSubdivision(ctx, in.ID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(deleteSubdivisionResponse{Detail: "subdivision deleted", RemovedMemberships: removed.Memberships})
}

func projectionResult(p *subdivision.Projection, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatusError(err)
	}
	ids := p.EmployeeIDs
	if ids == nil {
		ids = []int64{}
	}
	return encodeResponse(projectionResponse{ID: p.ID, Name: p.Name, LeaderID: p.LeaderID, EmployeeIDs: ids})
}
