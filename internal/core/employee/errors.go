package employee

import (
	"fmt"

	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

var (
	ErrInvalidID          = fmt.Errorf("employee: invalid id: %w", outcome.ErrInvalidArgument)
	ErrInvalidLastName    = fmt.Errorf("employee: invalid last name: %w", outcome.ErrInvalidArgument)
	ErrInvalidFirstName   = fmt.Errorf("employee: invalid first name: %w", outcome.ErrInvalidArgument)
	ErrInvalidEmail       = fmt.Errorf("employee: invalid email: %w", outcome.ErrInvalidArgument)
	ErrInvalidLogin       = fmt.Errorf("employee: invalid login: %w", outcome.ErrInvalidArgument)
	ErrInvalidFlag        = fmt.Errorf("employee: flag must be yes or no: %w", outcome.ErrInvalidArgument)
	ErrEmployeeNotFound   = fmt.Errorf("employee: %w", outcome.ErrNotFound)
	ErrLoginAlreadyExists = fmt.Errorf("employee: login already exists: %w", outcome.ErrConflict)
	ErrEmailAlreadyExists = fmt.Errorf("employee: email already exists: %w", outcome.ErrConflict)
	// ErrEmployeeInUse は期間や所属関係が残ったまま社員を削除しようとした場合に返却されます。
	ErrEmployeeInUse = fmt.Errorf("employee: still referenced by intervals or memberships: %w", outcome.ErrConflict)
)
