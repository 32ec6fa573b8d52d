package subdivision

import (
	"fmt"

	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

var (
	ErrInvalidID           = fmt.Errorf("subdivision: invalid id: %w", outcome.ErrInvalidArgument)
	ErrInvalidName         = fmt.Errorf("subdivision: invalid name: %w", outcome.ErrInvalidArgument)
	ErrInvalidEmployeeID   = fmt.Errorf("subdivision: invalid employee id: %w", outcome.ErrInvalidArgument)
	ErrSubdivisionNotFound = fmt.Errorf("subdivision: %w", outcome.ErrNotFound)
	// ErrLeaderNotFound は指定されたリーダーが社員として存在しない場合に返却されます。
	ErrLeaderNotFound    = fmt.Errorf("subdivision: leader %w", outcome.ErrNotFound)
	ErrNameAlreadyExists = fmt.Errorf("subdivision: name already exists: %w", outcome.ErrConflict)
	// ErrSubdivisionInUse は所属関係が残ったまま部署を削除しようとした場合に返却されます。
	ErrSubdivisionInUse = fmt.Errorf("subdivision: still has memberships: %w", outcome.ErrConflict)
)
