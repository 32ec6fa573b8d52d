// Package lifecycle は複数の集約にまたがる削除を扱います。
//
// 削除は外部キーのカスケードに頼らず、明示的な手順として一つのトランザクション内で実行します。
package lifecycle

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	"github.com/sirupsen/logrus"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// EmployeeStore は削除に必要な社員ストアの操作です。
type EmployeeStore interface {
	LockByID(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// IntervalStore は削除に必要な期間ストアの操作です。
type IntervalStore interface {
	DeleteByEmployee(ctx context.Context, employeeID int64) (int64, error)
}

// SubdivisionStore は削除に必要な部署ストアの操作です。
type SubdivisionStore interface {
	LockByID(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteMembershipsByEmployee(ctx context.Context, employeeID int64) (int64, error)
	DeleteMembershipsBySubdivision(ctx context.Context, subdivisionID int64) (int64, error)
	ClearLeader(ctx context.Context, employeeID int64) (int64, error)
}

// Options は Manager の挙動を切り替えます。
type Options struct {
	// ClearDanglingLeaders が true の場合、削除された社員をリーダーとする部署のリーダー参照を外します。
	ClearDanglingLeaders bool
}

// EmployeeRemoval は社員削除で取り除かれた件数です。
type EmployeeRemoval struct {
	Intervals      int64
	Memberships    int64
	LeadersCleared int64
}

// SubdivisionRemoval は部署削除で取り除かれた件数です。
type SubdivisionRemoval struct {
	Memberships int64
}

// UseCase は削除ユースケースの公開インターフェースです。
type UseCase interface {
	DeleteEmployee(ctx context.Context, id int64) (*EmployeeRemoval, error)
	DeleteSubdivision(ctx context.Context, id int64) (*SubdivisionRemoval, error)
}

// Manager は社員と部署の削除を依存レコードごと実行します。
type Manager struct {
	employees    EmployeeStore
	intervals    IntervalStore
	subdivisions SubdivisionStore
	tx           TransactionManager
	opts         Options
	log          logrus.FieldLogger
}

// NewManager は Manager を生成します。
func NewManager(employees EmployeeStore, intervals IntervalStore, subdivisions SubdivisionStore, tx TransactionManager, opts Options, log logrus.FieldLogger) *Manager {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		employees:    employees,
		intervals:    intervals,
		subdivisions: subdivisions,
		tx:           tx,
		opts:         opts,
		log:          log.WithField("component", "lifecycle"),
	}
}

// DeleteEmployee は社員と、その期間・所属関係を削除します。
// 既定ではリーダー参照は残ります。
func (m *Manager) DeleteEmployee(ctx context.Context, id int64) (*EmployeeRemoval, error) {
	if id <= 0 {
		return nil, employee.ErrInvalidID
	}

	var removal EmployeeRemoval
	if err := m.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		removal = EmployeeRemoval{}
		if err := m.employees.LockByID(txCtx, id); err != nil {
			return err
		}

		n, err := m.intervals.DeleteByEmployee(txCtx, id)
		if err != nil {
			return err
		}
		removal.Intervals = n

		n, err = m.subdivisions.DeleteMembershipsByEmployee(txCtx, id)
		if err != nil {
			return err
		}
		removal.Memberships = n

		if m.opts.ClearDanglingLeaders {
			n, err = m.subdivisions.ClearLeader(txCtx, id)
			if err != nil {
				return err
			}
			removal.LeadersCleared = n
		}

		return m.employees.Delete(txCtx, id)
	}); err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"employee_id":         id,
		"removed_intervals":   removal.Intervals,
		"removed_memberships": removal.Memberships,
		"cleared_leaders":     removal.LeadersCleared,
	}).Info("employee deleted")

	return &removal, nil
}

// DeleteSubdivision は部署とその所属関係を削除します。社員は削除しません。
func (m *Manager) DeleteSubdivision(ctx context.Context, id int64) (*SubdivisionRemoval, error) {
	if id <= 0 {
		return nil, subdivision.ErrInvalidID
	}

	var removal SubdivisionRemoval
	if err := m.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		removal = SubdivisionRemoval{}
		if err := m.subdivisions.LockByID(txCtx, id); err != nil {
			return err
		}

		n, err := m.subdivisions.DeleteMembershipsBySubdivision(txCtx, id)
		if err != nil {
			return err
		}
		removal.Memberships = n

		return m.subdivisions.Delete(txCtx, id)
	}); err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"subdivision_id":      id,
		"removed_memberships": removal.Memberships,
	}).Info("subdivision deleted")

	return &removal, nil
}
