package memory

import (
	"context"
	"sort"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
)

// IntervalRepository はメモリ上の期間ストアです。
type IntervalRepository struct {
	store *Store
}

// NewIntervalRepository は IntervalRepository を生成します。
func NewIntervalRepository(store *Store) *IntervalRepository {
	return &IntervalRepository{store: store}
}

// Create は期間を登録します。
func (r *IntervalRepository) Create(ctx context.Context, in *leave.Interval) (*leave.Interval, error) {
	var created *leave.Interval
	err := r.store.write(ctx, func(st *state) error {
		if err := checkInterval(st, in); err != nil {
			return err
		}
		st.seq.interval++
		clone := cloneInterval(in)
		clone.ID = st.seq.interval
		st.intervals[clone.ID] = clone
		created = cloneInterval(clone)
		return nil
	})
	return created, err
}

// Update は期間を更新します。
func (r *IntervalRepository) Update(ctx context.Context, in *leave.Interval) (*leave.Interval, error) {
	var updated *leave.Interval
	err := r.store.write(ctx, func(st *state) error {
		existing, ok := st.intervals[in.ID]
		if !ok {
			return leave.ErrIntervalNotFound
		}
		if err := checkInterval(st, in); err != nil {
			return err
		}
		clone := cloneInterval(in)
		clone.CreatedAt = existing.CreatedAt
		st.intervals[in.ID] = clone
		updated = cloneInterval(clone)
		return nil
	})
	return updated, err
}

// Delete は期間を削除します。
func (r *IntervalRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.intervals[id]; !ok {
			return leave.ErrIntervalNotFound
		}
		delete(st.intervals, id)
		return nil
	})
}

// FindByID は ID で期間を取得します。
func (r *IntervalRepository) FindByID(ctx context.Context, id int64) (*leave.Interval, error) {
	var found *leave.Interval
	err := r.store.read(ctx, func(st *state) error {
		in, ok := st.intervals[id]
		if !ok {
			return leave.ErrIntervalNotFound
		}
		found = cloneInterval(in)
		return nil
	})
	return found, err
}

// ListByEmployee は社員の期間を開始日、ID の昇順で返します。
func (r *IntervalRepository) ListByEmployee(ctx context.Context, employeeID int64, kind *leave.Kind) ([]*leave.Interval, error) {
	result := []*leave.Interval{}
	err := r.store.read(ctx, func(st *state) error {
		for _, in := range st.intervals {
			if in.EmployeeID != employeeID {
				continue
			}
			if kind != nil && in.Kind != *kind {
				continue
			}
			result = append(result, cloneInterval(in))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// ExistsOverlap は条件に該当する期間が存在するかを返します。
func (r *IntervalRepository) ExistsOverlap(ctx context.Context, q leave.OverlapQuery) (bool, error) {
	found := false
	err := r.store.read(ctx, func(st *state) error {
		for _, in := range st.intervals {
			if q.Matches(in) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// DeleteByEmployee は社員の期間をすべて削除し、削除件数を返します。
func (r *IntervalRepository) DeleteByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(st *state) error {
		for id, in := range st.intervals {
			if in.EmployeeID == employeeID {
				delete(st.intervals, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// EmployeeExists は社員の存在を確認します。
func (r *IntervalRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	exists := false
	err := r.store.read(ctx, func(st *state) error {
		_, exists = st.employees[employeeID]
		return nil
	})
	return exists, err
}

// LockOwner は社員の存在を確認します。
func (r *IntervalRepository) LockOwner(ctx context.Context, employeeID int64) error {
	exists, err := r.EmployeeExists(ctx, employeeID)
	if err != nil {
		return err
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// LockSchedule は書き込みトランザクションの外で呼ばれた場合にのみ失敗します。
func (r *IntervalRepository) LockSchedule(ctx context.Context, _ bool) error {
	if m, ok := txFromContext(ctx); ok && !m.writable {
		return ErrReadOnly
	}
	return nil
}

func checkInterval(st *state, in *leave.Interval) error {
	if _, ok := st.employees[in.EmployeeID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	if in.EndDate.Before(in.StartDate) {
		return leave.ErrInvalidDateRange
	}
	return nil
}
