package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	pgdb "github.com/ogurasousui/orgrecords/internal/platform/db/postgres"
)

// scheduleLockKey は期間テーブル全体を対象とするアドバイザリロックのキーです。
const scheduleLockKey int64 = 0x6c65617665

const intervalColumns = "id, employee_id, start_date, end_date, kind, created_at, updated_at"

// IntervalRepository は PostgreSQL を利用した休暇・出張期間の永続化の実装です。
type IntervalRepository struct {
	pool pgdb.Queryer
}

// NewIntervalRepository は IntervalRepository を生成します。
func NewIntervalRepository(pool pgdb.Queryer) *IntervalRepository {
	return &IntervalRepository{pool: pool}
}

// Create は期間を新規作成します。
func (r *IntervalRepository) Create(ctx context.Context, in *leave.Interval) (*leave.Interval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO leave_intervals (employee_id, start_date, end_date, kind, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+intervalColumns,
		in.EmployeeID, toPgDate(in.StartDate), toPgDate(in.EndDate), string(in.Kind), in.CreatedAt, in.UpdatedAt)

	created, err := scanInterval(row)
	if err != nil {
		return nil, translateIntervalPgError(err)
	}
	return created, nil
}

// Update は期間を更新します。
func (r *IntervalRepository) Update(ctx context.Context, in *leave.Interval) (*leave.Interval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE leave_intervals
           SET employee_id = $1,
               start_date = $2,
               end_date = $3,
               kind = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING `+intervalColumns,
		in.EmployeeID, toPgDate(in.StartDate), toPgDate(in.EndDate), string(in.Kind), in.UpdatedAt, in.ID)

	updated, err := scanInterval(row)
	if err != nil {
		return nil, translateIntervalPgError(err)
	}
	return updated, nil
}

// Delete は期間を削除します。
func (r *IntervalRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM leave_intervals WHERE id = $1`, id)
	if err != nil {
		return translateIntervalPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrIntervalNotFound
	}
	return nil
}

// FindByID は ID で期間を取得します。
func (r *IntervalRepository) FindByID(ctx context.Context, id int64) (*leave.Interval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanInterval(exec.QueryRow(ctx, `SELECT `+intervalColumns+` FROM leave_intervals WHERE id = $1`, id))
	if err != nil {
		return nil, translateIntervalPgError(err)
	}
	return found, nil
}

// ListByEmployee は社員の期間を開始日、ID の昇順で返します。
func (r *IntervalRepository) ListByEmployee(ctx context.Context, employeeID int64, kind *leave.Kind) ([]*leave.Interval, error) {
	args := []any{employeeID}
	query := `SELECT ` + intervalColumns + ` FROM leave_intervals WHERE employee_id = $1`
	if kind != nil {
		args = append(args, string(*kind))
		query += ` AND kind = $2`
	}
	query += ` ORDER BY start_date, id`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateIntervalPgError(err)
	}
	defer rows.Close()

	intervals := []*leave.Interval{}
	for rows.Next() {
		found, err := scanInterval(rows)
		if err != nil {
			return nil, translateIntervalPgError(err)
		}
		intervals = append(intervals, found)
	}
	if err := rows.Err(); err != nil {
		return nil, translateIntervalPgError(err)
	}
	return intervals, nil
}

// ExistsOverlap は条件に該当する期間が存在するかを返します。
func (r *IntervalRepository) ExistsOverlap(ctx context.Context, q leave.OverlapQuery) (bool, error) {
	query, args := buildOverlapQuery(q)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var exists bool
	if err := exec.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, translateIntervalPgError(err)
	}
	return exists, nil
}

// DeleteByEmployee は社員の期間をすべて削除し、削除件数を返します。
func (r *IntervalRepository) DeleteByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM leave_intervals WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, translateIntervalPgError(err)
	}
	return tag.RowsAffected(), nil
}

// EmployeeExists は社員の存在を確認します。
func (r *IntervalRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, employeeID).Scan(&exists); err != nil {
		return false, pgdb.WrapTransient(err)
	}
	return exists, nil
}

// LockOwner は社員行を FOR UPDATE でロックします。
func (r *IntervalRepository) LockOwner(ctx context.Context, employeeID int64) error {
	return lockEmployeeRow(ctx, r.pool, employeeID)
}

// LockSchedule はトランザクション終了まで保持されるアドバイザリロックを取得します。
func (r *IntervalRepository) LockSchedule(ctx context.Context, exclusive bool) error {
	query := `SELECT pg_advisory_xact_lock_shared($1)`
	if exclusive {
		query = `SELECT pg_advisory_xact_lock($1)`
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, query, scheduleLockKey); err != nil {
		return pgdb.WrapTransient(err)
	}
	return nil
}

func buildOverlapQuery(q leave.OverlapQuery) (string, []any) {
	startOp, endOp := "<=", ">="
	if q.Bounds == leave.BoundsStrict {
		startOp, endOp = "<", ">"
	}

	args := []any{toPgDate(q.End), toPgDate(q.Start)}
	conditions := []string{
		"start_date " + startOp + " $1",
		"end_date " + endOp + " $2",
	}
	if q.EmployeeID != nil {
		args = append(args, *q.EmployeeID)
		conditions = append(conditions, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if q.ExcludeID != nil {
		args = append(args, *q.ExcludeID)
		conditions = append(conditions, "id <> $"+strconv.Itoa(len(args)))
	}

	return `SELECT EXISTS (SELECT 1 FROM leave_intervals WHERE ` + strings.Join(conditions, " AND ") + `)`, args
}

func scanInterval(row pgx.Row) (*leave.Interval, error) {
	var (
		id, employeeID       int64
		start, end           pgtype.Date
		kind                 string
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &employeeID, &start, &end, &kind, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, leave.ErrIntervalNotFound
		}
		return nil, err
	}

	return &leave.Interval{
		ID:         id,
		EmployeeID: employeeID,
		StartDate:  fromPgDate(start),
		EndDate:    fromPgDate(end),
		Kind:       leave.Kind(kind),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func translateIntervalPgError(err error) error {
	code, _, ok := pgdb.PgErrorCode(err)
	if ok {
		switch code {
		case pgdb.ForeignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		case pgdb.CheckViolationCode:
			return leave.ErrInvalidDateRange
		}
	}
	return pgdb.WrapTransient(err)
}

func toPgDate(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func fromPgDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
