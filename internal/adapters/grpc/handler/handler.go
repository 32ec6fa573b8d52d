package handler

import (
	"github.com/ogurasousui/orgrecords/internal/core/access"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"github.com/ogurasousui/orgrecords/internal/core/lifecycle"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
)

// Services はハンドラーが呼び出すユースケースの集合です。
type Services struct {
	Access       access.UseCase
	Employees    employee.UseCase
	Intervals    leave.UseCase
	Subdivisions subdivision.UseCase
	Lifecycle    lifecycle.UseCase
	Hasher       access.PasswordHasher
}

// OrgRecordsHandler は OrgRecordsService の gRPC 実装です。
type OrgRecordsHandler struct {
	access       access.UseCase
	employees    employee.UseCase
	intervals    leave.UseCase
	subdivisions subdivision.UseCase
	lifecycle    lifecycle.UseCase
	hasher       access.PasswordHasher
}

var _ OrgRecordsServer = (*OrgRecordsHandler)(nil)

// NewOrgRecordsHandler は OrgRecordsHandler を生成します。
func NewOrgRecordsHandler(s Services) *OrgRecordsHandler {
	return &OrgRecordsHandler{
		access:       s.Access,
		employees:    s.Employees,
		intervals:    s.Intervals,
		subdivisions: s.Subdivisions,
		lifecycle:    s.Lifecycle,
		hasher:       s.Hasher,
	}
}
