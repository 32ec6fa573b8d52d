package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	pgdb "github.com/ogurasousui/orgrecords/internal/platform/db/postgres"
)

const (
	employeeEmailConstraint = "employees_email_key"
	employeeColumns         = "id, last_name, first_name, patronymic, email, login, password_hash, is_supervisor, is_vacation, created_at, updated_at"
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (last_name, first_name, patronymic, email, login, password_hash, is_supervisor, is_vacation, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+employeeColumns,
		e.LastName, e.FirstName, nullableString(e.Patronymic), nullableString(e.Email), nullableString(e.Login),
		e.PasswordHash, string(e.IsSupervisor), string(e.IsVacation), e.CreatedAt, e.UpdatedAt)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET last_name = $1,
               first_name = $2,
               patronymic = $3,
               email = $4,
               login = $5,
               password_hash = $6,
               is_supervisor = $7,
               is_vacation = $8,
               updated_at = $9
         WHERE id = $10
        RETURNING `+employeeColumns,
		e.LastName, e.FirstName, nullableString(e.Patronymic), nullableString(e.Email), nullableString(e.Login),
		e.PasswordHash, string(e.IsSupervisor), string(e.IsVacation), e.UpdatedAt, e.ID)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。期間や所属関係が残っている場合は ErrEmployeeInUse を返します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

// FindByLogin はログイン名で社員を取得します。
func (r *EmployeeRepository) FindByLogin(ctx context.Context, login string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE login = $1`, login)
}

// FindByEmail はメールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.findOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
}

// LockByID は社員行を FOR UPDATE でロックします。
func (r *EmployeeRepository) LockByID(ctx context.Context, id int64) error {
	return lockEmployeeRow(ctx, r.pool, id)
}

func (r *EmployeeRepository) findOne(ctx context.Context, query string, arg any) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEmployee(exec.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func lockEmployeeRow(ctx context.Context, pool pgdb.Queryer, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, pool)
	var locked int64
	if err := exec.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return pgdb.WrapTransient(err)
	}
	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id                       int64
		lastName, firstName      string
		patronymic, email, login sql.NullString
		passwordHash             string
		isSupervisor, isVacation string
		createdAt, updatedAt     time.Time
	)

	if err := row.Scan(&id, &lastName, &firstName, &patronymic, &email, &login, &passwordHash, &isSupervisor, &isVacation, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:           id,
		LastName:     lastName,
		FirstName:    firstName,
		Patronymic:   stringPtr(patronymic),
		Email:        stringPtr(email),
		Login:        stringPtr(login),
		PasswordHash: passwordHash,
		IsSupervisor: employee.Flag(isSupervisor),
		IsVacation:   employee.Flag(isVacation),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	code, constraint, ok := pgdb.PgErrorCode(err)
	if ok {
		switch code {
		case pgdb.UniqueViolationCode:
			if constraint == employeeEmailConstraint {
				return employee.ErrEmailAlreadyExists
			}
			return employee.ErrLoginAlreadyExists
		case pgdb.ForeignKeyViolationCode:
			return employee.ErrEmployeeInUse
		case pgdb.CheckViolationCode:
			return employee.ErrInvalidFlag
		}
	}
	return pgdb.WrapTransient(err)
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
