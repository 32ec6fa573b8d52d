package leave

import "context"

// Repository は期間の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, interval *Interval) (*Interval, error)
	Update(ctx context.Context, interval *Interval) (*Interval, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Interval, error)
	// ListByEmployee は社員の期間を開始日の昇順で返します。kind が nil の場合は全種別です。
	ListByEmployee(ctx context.Context, employeeID int64, kind *Kind) ([]*Interval, error)
	ExistsOverlap(ctx context.Context, q OverlapQuery) (bool, error)
	DeleteByEmployee(ctx context.Context, employeeID int64) (int64, error)
	// EmployeeExists は社員の存在を確認します。
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
	// LockOwner は社員行をトランザクション終了まで排他ロックします。社員が存在しない場合は employee.ErrEmployeeNotFound を返します。
	LockOwner(ctx context.Context, employeeID int64) error
	// LockSchedule は期間全体に対するロックを取得します。exclusive でない場合は共有ロックです。
	LockSchedule(ctx context.Context, exclusive bool) error
}
