package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Employee, error)
	FindByLogin(ctx context.Context, login string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	// LockByID はトランザクション終了まで社員行を排他ロックします。
	LockByID(ctx context.Context, id int64) error
}
