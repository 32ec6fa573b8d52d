package handler

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/access"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type employeeFields struct {
	LastName     string  `json:"last_name" validate:"required,max=255"`
	FirstName    string  `json:"first_name" validate:"required,max=255"`
	Patronymic   *string `json:"patronymic" validate:"omitempty,max=255"`
	Email        *string `json:"email" validate:"omitempty,max=255"`
	Login        *string `json:"login" validate:"omitempty,max=255"`
	Password     *string `json:"password" validate:"omitempty,min=1,max=72"`
	IsSupervisor *string `json:"is_supervisor" validate:"omitempty,oneof=yes no"`
	IsVacation   *string `json:"is_vacation" validate:"omitempty,oneof=yes no"`
}

type registerEmployeeRequest struct {
	employeeFields
	Password string `json:"password" validate:"required,max=72"`
	Login    string `json:"login" validate:"required,max=255"`
}

type issueTokenRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type idRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type updateEmployeeRequest struct {
	ID           int64   `json:"id" validate:"required,gt=0"`
	LastName     *string `json:"last_name" validate:"omitempty,max=255"`
	FirstName    *string `json:"first_name" validate:"omitempty,max=255"`
	Patronymic   *string `json:"patronymic" validate:"omitempty,max=255"`
	Email        *string `json:"email" validate:"omitempty,max=255"`
	Login        *string `json:"login" validate:"omitempty,max=255"`
	Password     *string `json:"password" validate:"omitempty,min=1,max=72"`
	IsSupervisor *string `json:"is_supervisor" validate:"omitempty,oneof=yes no"`
	IsVacation   *string `json:"is_vacation" validate:"omitempty,oneof=yes no"`
}

type employeeResponse struct {
	ID           int64   `json:"id"`
	LastName     string  `json:"last_name"`
	FirstName    string  `json:"first_name"`
	Patronymic   *string `json:"patronymic"`
	Email        *string `json:"email"`
	Login        *string `json:"login"`
	IsSupervisor string  `json:"is_supervisor"`
	IsVacation   string  `json:"is_vacation"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

type deleteEmployeeResponse struct {
	Detail             string `json:"detail"`
	RemovedIntervals   int64  `json:"removed_intervals"`
	RemovedMemberships int64  `json:"removed_memberships"`
	ClearedLeaders     int64  `json:"cleared_leaders"`
}

// RegisterEmployee は社員を登録し、アクセストークンを返します。
func (h *OrgRecordsHandler) RegisterEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in registerEmployeeRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	login := in.Login
	create := in.employeeFields.toCreateInput()
	create.Login = &login

	token, err := h.access.Register(ctx, access.RegisterInput{Employee: create, Password: in.Password})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toTokenResponse(token))
}

// IssueToken はログイン名とパスワードを照合してアクセストークンを返します。
func (h *OrgRecordsHandler) IssueToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in issueTokenRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	token, err := h.access.IssueToken(ctx, access.IssueTokenInput{Login: in.Login, Password: in.Password})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toTokenResponse(token))
}

// AddEmployee は社員を作成します。password が指定された場合はハッシュ化して保存します。
func (h *OrgRecordsHandler) AddEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in employeeFields
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	create := in.toCreateInput()
	if in.Password != nil {
		hash, err := h.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		create.PasswordHash = hash
	}

	created, err := h.employees.CreateEmployee(ctx, create)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toEmployeeResponse(created))
}

// GetEmployee は社員を取得します。
func (h *OrgRecordsHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	found, err := h.employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: in.ID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toEmployeeResponse(found))
}

// UpdateEmployee は指定されたフィールドのみ社員情報を更新します。
func (h *OrgRecordsHandler) UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateEmployeeRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	update := employee.UpdateEmployeeInput{
		ID:           in.ID,
		LastName:     in.LastName,
		FirstName:    in.FirstName,
		Patronymic:   in.Patronymic,
		Email:        in.Email,
		Login:        in.Login,
		IsSupervisor: toFlag(in.IsSupervisor),
		IsVacation:   toFlag(in.IsVacation),
	}
	if in.Password != nil {
		hash, err := h.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	updated, err := h.employees.UpdateEmployee(ctx, update)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(toEmployeeResponse(updated))
}

// DeleteEmployee は社員と、その期間・所属関係を削除します。
func (h *OrgRecordsHandler) DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeRequest(req, &in); err != nil {
		return nil, err
	}

	removed, err := h.lifecycle.DeleteEmployee(ctx, in.ID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return encodeResponse(deleteEmployeeResponse{
		Detail:             "employee deleted",
		RemovedIntervals:   removed.Intervals,
		RemovedMemberships: removed.Memberships,
		ClearedLeaders:     removed.LeadersCleared,
	})
}

func (h *OrgRecordsHandler) hashPassword(password string) (string, error) {
	if h.hasher == nil {
		return "", status.Error(codes.Unimplemented, "password hashing is not configured")
	}
	hash, err := h.hasher.Hash(password)
	if err != nil {
		return "", status.Errorf(codes.Internal, "hash password: %v", err)
	}
	return hash, nil
}

func (f employeeFields) toCreateInput() employee.CreateEmployeeInput {
	return employee.CreateEmployeeInput{
		LastName:     f.LastName,
		FirstName:    f.FirstName,
		Patronymic:   f.Patronymic,
		Email:        f.Email,
		Login:        f.Login,
		IsSupervisor: toFlag(f.IsSupervisor),
		IsVacation:   toFlag(f.IsVacation),
	}
}

func toFlag(raw *string) *employee.Flag {
	if raw == nil {
		return nil
	}
	flag := employee.Flag(*raw)
	return &flag
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:           e.ID,
		LastName:     e.LastName,
		FirstName:    e.FirstName,
		Patronymic:   e.Patronymic,
		Email:        e.Email,
		Login:        e.Login,
		IsSupervisor: string(e.IsSupervisor),
		IsVacation:   string(e.IsVacation),
		CreatedAt:    formatTimestamp(e.CreatedAt),
		UpdatedAt:    formatTimestamp(e.UpdatedAt),
	}
}

func toTokenResponse(t *access.Token) tokenResponse {
	return tokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresAt:   formatTimestamp(t.ExpiresAt),
	}
}
