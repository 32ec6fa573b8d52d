package leave

import (
	"fmt"

	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

var (
	ErrInvalidID          = fmt.Errorf("leave: invalid id: %w", outcome.ErrInvalidArgument)
	ErrInvalidEmployeeID  = fmt.Errorf("leave: invalid employee id: %w", outcome.ErrInvalidArgument)
	ErrInvalidKind        = fmt.Errorf("leave: type must be vacation or business: %w", outcome.ErrInvalidArgument)
	ErrMissingDate        = fmt.Errorf("leave: start_date and end_date are required: %w", outcome.ErrInvalidArgument)
	ErrInvalidDate        = fmt.Errorf("leave: date must be YYYY-MM-DD: %w", outcome.ErrInvalidArgument)
	ErrInvalidDateRange   = fmt.Errorf("leave: end_date precedes start_date: %w", outcome.ErrInvalidArgument)
	ErrInvalidOverlapRule = fmt.Errorf("leave: invalid overlap rule: %w", outcome.ErrInvalidArgument)
	ErrIntervalNotFound   = fmt.Errorf("leave: interval %w", outcome.ErrNotFound)
	// ErrSchedulingConflict は既存の期間と重なる場合に返却されます。書き込みは行われません。
	ErrSchedulingConflict = fmt.Errorf("leave: interval overlaps an existing interval: %w", outcome.ErrSchedulingConflict)
)
