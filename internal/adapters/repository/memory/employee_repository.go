package memory

import (
	"context"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
)

// EmployeeRepository はメモリ上の社員ストアです。
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

// Create は社員を登録し、採番した ID を設定して返します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	var created *employee.Employee
	err := r.store.write(ctx, func(st *state) error {
		if err := checkEmployeeUnique(st, e); err != nil {
			return err
		}
		st.seq.employee++
		clone := cloneEmployee(e)
		clone.ID = st.seq.employee
		st.employees[clone.ID] = clone
		created = cloneEmployee(clone)
		return nil
	})
	return created, err
}

// Update は社員を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	var updated *employee.Employee
	err := r.store.write(ctx, func(st *state) error {
		existing, ok := st.employees[e.ID]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		if err := checkEmployeeUnique(st, e); err != nil {
			return err
		}
		clone := cloneEmployee(e)
		clone.CreatedAt = existing.CreatedAt
		st.employees[e.ID] = clone
		updated = cloneEmployee(clone)
		return nil
	})
	return updated, err
}

// Delete は社員を削除します。期間や所属関係が残っている場合は ErrEmployeeInUse を返します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.employees[id]; !ok {
			return employee.ErrEmployeeNotFound
		}
		for _, in := range st.intervals {
			if in.EmployeeID == id {
				return employee.ErrEmployeeInUse
			}
		}
		for k := range st.members {
			if k.employeeID == id {
				return employee.ErrEmployeeInUse
			}
		}
		delete(st.employees, id)
		return nil
	})
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	var found *employee.Employee
	err := r.store.read(ctx, func(st *state) error {
		e, ok := st.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		found = cloneEmployee(e)
		return nil
	})
	return found, err
}

// FindByLogin はログイン名で社員を取得します。
func (r *EmployeeRepository) FindByLogin(ctx context.Context, login string) (*employee.Employee, error) {
	return r.findBy(ctx, func(e *employee.Employee) bool {
		return e.Login != nil && *e.Login == login
	})
}

// FindByEmail はメールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.findBy(ctx, func(e *employee.Employee) bool {
		return e.Email != nil && *e.Email == email
	})
}

// LockByID は社員の存在を確認します。書き込みトランザクションは単一ライターのため追加のロックは不要です。
func (r *EmployeeRepository) LockByID(ctx context.Context, id int64) error {
	_, err := r.FindByID(ctx, id)
	return err
}

func (r *EmployeeRepository) findBy(ctx context.Context, match func(*employee.Employee) bool) (*employee.Employee, error) {
	var found *employee.Employee
	err := r.store.read(ctx, func(st *state) error {
		for _, e := range st.employees {
			if match(e) {
				found = cloneEmployee(e)
				return nil
			}
		}
		return employee.ErrEmployeeNotFound
	})
	return found, err
}

func checkEmployeeUnique(st *state, e *employee.Employee) error {
	for _, other := range st.employees {
		if other.ID == e.ID {
			continue
		}
		if e.Login != nil && other.Login != nil && *e.Login == *other.Login {
			return employee.ErrLoginAlreadyExists
		}
		if e.Email != nil && other.Email != nil && *e.Email == *other.Email {
			return employee.ErrEmailAlreadyExists
		}
	}
	return nil
}
