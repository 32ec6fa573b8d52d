package handler

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"google.golang.org/protobuf/types/known/structpb"
)

type addIntervalRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	Type       string `json:"type" validate:"required"`
}

type updateIntervalRequest struct {
	ID         int64   `json:"id" validate:"required,gt=0"`
	EmployeeID *int64  `json:"employee_id" validate:"omitempty,gt=0"`
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
	Type       *string `json:"type"`
}

type listEmployeeIntervalsRequest struct {
	EmployeeID int64   `json:"employee_id" validate:"required,gt=0"`
	Type       *string `json:"type"`
}

type intervalResponse struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Type       string `json:"type"`
}

type listEmployeeIntervalsResponse struct {
	EmployeeID int64              `json:"employee_id"`
	Intervals  []intervalResponse `json:"intervals"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// AddInterval は社員に休暇・出張期間を追加します。
func (h *OrgRecordsHandler) AddInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in addIntervalRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	start, err := parseDateField("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDateField("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	created, err := h.intervals.AddInterval(ctx, leave.AddIntervalInput{
		EmployeeID: in.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Kind:       leave.Kind(in.Type),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toIntervalResponse(created))
}

// GetInterval は期間を取得します。
func (h *OrgRecordsHandler) GetInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	found, err := h.intervals.GetInterval(ctx, leave.GetIntervalInput{ID: in.ID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toIntervalResponse(found))
}

// UpdateInterval は指定されたフィールドのみ期間を更新します。
func (h *OrgRecordsHandler) UpdateInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateIntervalRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	start, err := parseOptionalDateField("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDateField("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	updated, err := h.intervals.UpdateInterval(ctx, leave.UpdateIntervalInput{
		ID:         in.ID,
		EmployeeID: in.EmployeeID,
		StartDate:  start,
		EndDate:    end,
		Kind:       toKind(in.Type),
	})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toIntervalResponse(updated))
}

// DeleteInterval は期間を削除します。
func (h *OrgRecordsHandler) DeleteInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	if err := h.intervals.DeleteInterval(ctx, leave.DeleteIntervalInput{ID: in.ID}); err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(detailResponse{Detail: "interval deleted"})
}

// ListEmployeeIntervals は社員の期間を開始日順に返します。type で種別を絞り込めます。
func (h *OrgRecordsHandler) ListEmployeeIntervals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listEmployeeIntervalsRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	found, err := h.intervals.ListEmployeeIntervals(ctx, leave.ListEmployeeIntervalsInput{EmployeeID: in.EmployeeID, Kind: toKind(in.Type)})
	if err != nil {
		return nil, toStatusError(err)
	}

	resp := listEmployeeIntervalsResponse{EmployeeID: in.EmployeeID, Intervals: make([]intervalResponse, 0, len(found))}
	for _, it := range found {
		resp.Intervals = append(resp.Intervals, toIntervalResponse(it))
	}
	return encodeResponse(resp)
}

func toKind(raw *string) *leave.Kind {
	if raw == nil {
		return nil
	}
	kind := leave.Kind(*raw)
	return &kind
}

func toIntervalResponse(in *leave.Interval) intervalResponse {
	return intervalResponse{
		ID:         in.ID,
		EmployeeID: in.EmployeeID,
		StartDate:  formatDate(in.StartDate),
		EndDate:    formatDate(in.EndDate),
		Type:       string(in.Kind),
	}
}
