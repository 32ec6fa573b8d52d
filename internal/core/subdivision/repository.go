package subdivision

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
)

// Repository は部署と所属関係の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, subdivision *Subdivision) (*Subdivision, error)
	Update(ctx context.Context, subdivision *Subdivision) (*Subdivision, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Subdivision, error)
	FindByName(ctx context.Context, name string) (*Subdivision, error)
	// LockByID はトランザクション終了まで部署行を排他ロックします。
	LockByID(ctx context.Context, id int64) error
	// FindProjection は部署と所属社員 ID を一つのスナップショットから組み立てます。
	FindProjection(ctx context.Context, id int64) (*Projection, error)

	// AddMember は所属関係を追加します。既に存在する場合は何もしません。
	AddMember(ctx context.Context, subdivisionID, employeeID int64) error
	// RemoveMember は所属関係を削除します。存在しない場合は何もしません。
	RemoveMember(ctx context.Context, subdivisionID, employeeID int64) error
	DeleteMembershipsByEmployee(ctx context.Context, employeeID int64) (int64, error)
	DeleteMembershipsBySubdivision(ctx context.Context, subdivisionID int64) (int64, error)
	// ClearLeader は employeeID をリーダーとする部署のリーダー参照を外します。
	ClearLeader(ctx context.Context, employeeID int64) (int64, error)
}

// EmployeeReader は部署から参照される社員の存在確認に使います。
type EmployeeReader interface {
	FindByID(ctx context.Context, id int64) (*employee.Employee, error)
}
