package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	pgdb "github.com/ogurasousui/orgrecords/internal/platform/db/postgres"
)

const (
	memberEmployeeConstraint = "subdivision_members_employee_id_fkey"
	subdivisionColumns       = "id, name, leader_id, created_at, updated_at"
)

// SubdivisionRepository は PostgreSQL を利用した部署と所属関係の永続化の実装です。
type SubdivisionRepository struct {
	pool pgdb.Queryer
}

// NewSubdivisionRepository は SubdivisionRepository を生成します。
func NewSubdivisionRepository(pool pgdb.Queryer) *SubdivisionRepository {
	return &SubdivisionRepository{pool: pool}
}

// Create は部署を新規作成します。
func (r *SubdivisionRepository) Create(ctx context.Context, s *subdivision.Subdivision) (*subdivision.Subdivision, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO subdivisions (name, leader_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING `+subdivisionColumns,
		s.Name, nullableInt64(s.LeaderID), s.CreatedAt, s.UpdatedAt)

	created, err := scanSubdivision(row)
	if err != nil {
		return nil, translateSubdivisionPgError(err)
	}
	return created, nil
}

// Update は部署を更新します。
func (r *SubdivisionRepository) Update(ctx context.Context, s *subdivision.Subdivision) (*subdivision.Subdivision, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE subdivisions
           SET name = $1,
               leader_id = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+subdivisionColumns,
		s.Name, nullableInt64(s.LeaderID), s.UpdatedAt, s.ID)

	updated, err := scanSubdivision(row)
	if err != nil {
		return nil, translateSubdivisionPgError(err)
	}
	return updated, nil
}

// Delete は部署を削除します。所属関係が残っている場合は ErrSubdivisionInUse を返します。
func (r *SubdivisionRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM subdivisions WHERE id = $1`, id)
	if err != nil {
		if code, _, ok := pgdb.PgErrorCode(err); ok && code == pgdb.ForeignKeyViolationCode {
			return subdivision.ErrSubdivisionInUse
		}
		return translateSubdivisionPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return subdivision.ErrSubdivisionNotFound
	}
	return nil
}

// FindByID は ID で部署を取得します。
func (r *SubdivisionRepository) FindByID(ctx context.Context, id int64) (*subdivision.Subdivision, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanSubdivision(exec.QueryRow(ctx, `SELECT `+subdivisionColumns+` FROM subdivisions WHERE id = $1`, id))
	if err != nil {
		return nil, translateSubdivisionPgError(err)
	}
	return found, nil
}

// FindByName は名前で部署を取得します。
func (r *SubdivisionRepository) FindByName(ctx context.Context, name string) (*subdivision.Subdivision, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanSubdivision(exec.QueryRow(ctx, `SELECT `+subdivisionColumns+` FROM subdivisions WHERE name = $1`, name))
	if err != nil {
		return nil, translateSubdivisionPgError(err)
	}
	return found, nil
}

// LockByID は部署行を FOR UPDATE でロックします。
func (r *SubdivisionRepository) LockByID(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var locked int64
	if err := exec.QueryRow(ctx, `SELECT id FROM subdivisions WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subdivision.ErrSubdivisionNotFound
		}
		return pgdb.WrapTransient(err)
	}
	return nil
}

// FindProjection は部署と所属社員 ID を一つのクエリで取得します。
func (r *SubdivisionRepository) FindProjection(ctx context.Context, id int64) (*subdivision.Projection, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT s.id,
               s.name,
               s.leader_id,
               COALESCE(array_agg(m.employee_id ORDER BY m.employee_id) FILTER (WHERE m.employee_id IS NOT NULL), '{}')::bigint[]
          FROM subdivisions s
          LEFT JOIN subdivision_members m ON m.subdivision_id = s.id
         WHERE s.id = $1
         GROUP BY s.id
    `, id)

	var (
		projectionID int64
		name         string
		leaderID     pgtype.Int8
		employeeIDs  []int64
	)
	if err := row.Scan(&projectionID, &name, &leaderID, &employeeIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subdivision.ErrSubdivisionNotFound
		}
		return nil, translateSubdivisionPgError(err)
	}
	if employeeIDs == nil {
		employeeIDs = []int64{}
	}

	return &subdivision.Projection{
		ID:          projectionID,
		Name:        name,
		LeaderID:    int64Ptr(leaderID),
		EmployeeIDs: employeeIDs,
	}, nil
}

// AddMember は所属関係を追加します。既に存在する場合は何もしません。
func (r *SubdivisionRepository) AddMember(ctx context.Context, subdivisionID, employeeID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO subdivision_members (subdivision_id, employee_id)
        VALUES ($1, $2)
        ON CONFLICT (subdivision_id, employee_id) DO NOTHING
    `, subdivisionID, employeeID)
	if err != nil {
		return translateMemberPgError(err)
	}
	return nil
}

// RemoveMember は所属関係を削除します。
func (r *SubdivisionRepository) RemoveMember(ctx context.Context, subdivisionID, employeeID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM subdivision_members WHERE subdivision_id = $1 AND employee_id = $2`, subdivisionID, employeeID); err != nil {
		return translateMemberPgError(err)
	}
	return nil
}

// DeleteMembershipsByEmployee は社員の所属関係をすべて削除します。
func (r *SubdivisionRepository) DeleteMembershipsByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	return r.execCount(ctx, `DELETE FROM subdivision_members WHERE employee_id = $1`, employeeID)
}

// DeleteMembershipsBySubdivision は部署の所属関係をすべて削除します。
func (r *SubdivisionRepository) DeleteMembershipsBySubdivision(ctx context.Context, subdivisionID int64) (int64, error) {
	return r.execCount(ctx, `DELETE FROM subdivision_members WHERE subdivision_id = $1`, subdivisionID)
}

// ClearLeader は employeeID をリーダーとする部署のリーダー参照を外します。
func (r *SubdivisionRepository) ClearLeader(ctx context.Context, employeeID int64) (int64, error) {
	return r.execCount(ctx, `UPDATE subdivisions SET leader_id = NULL, updated_at = now() WHERE leader_id = $1`, employeeID)
}

func (r *SubdivisionRepository) execCount(ctx context.Context, query string, arg int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, query, arg)
	if err != nil {
		return 0, translateMemberPgError(err)
	}
	return tag.RowsAffected(), nil
}

func scanSubdivision(row pgx.Row) (*subdivision.Subdivision, error) {
	var (
		id                   int64
		name                 string
		leaderID             pgtype.Int8
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &name, &leaderID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subdivision.ErrSubdivisionNotFound
		}
		return nil, err
	}

	return &subdivision.Subdivision{
		ID:        id,
		Name:      name,
		LeaderID:  int64Ptr(leaderID),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translateSubdivisionPgError(err error) error {
	if code, _, ok := pgdb.PgErrorCode(err); ok && code == pgdb.UniqueViolationCode {
		return subdivision.ErrNameAlreadyExists
	}
	return pgdb.WrapTransient(err)
}

func translateMemberPgError(err error) error {
	if code, constraint, ok := pgdb.PgErrorCode(err); ok && code == pgdb.ForeignKeyViolationCode {
		if constraint == memberEmployeeConstraint {
			return employee.ErrEmployeeNotFound
		}
		return subdivision.ErrSubdivisionNotFound
	}
	return pgdb.WrapTransient(err)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func int64Ptr(value pgtype.Int8) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
