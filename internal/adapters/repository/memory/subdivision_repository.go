package memory

import (
	"context"
	"sort"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
)

// SubdivisionRepository はメモリ上の部署・所属関係ストアです。
type SubdivisionRepository struct {
	store *Store
}

// NewSubdivisionRepository は SubdivisionRepository を生成します。
func NewSubdivisionRepository(store *Store) *SubdivisionRepository {
	return &SubdivisionRepository{store: store}
}

// Create は部署を登録します。
func (r *SubdivisionRepository) Create(ctx context.Context, s *subdivision.Subdivision) (*subdivision.Subdivision, error) {
	var created *subdivision.Subdivision
	err := r.store.write(ctx, func(st *state) error {
		if err := checkSubdivisionName(st, s); err != nil {
			return err
		}
		st.seq.subdivision++
		clone := cloneSubdivision(s)
		clone.ID = st.seq.subdivision
		st.subdivisions[clone.ID] = clone
		created = cloneSubdivision(clone)
		return nil
	})
	return created, err
}

// Update は部署を更新します。
func (r *SubdivisionRepository) Update(ctx context.Context, s *subdivision.Subdivision) (*subdivision.Subdivision, error) {
	var updated *subdivision.Subdivision
	err := r.store.write(ctx, func(st *state) error {
		existing, ok := st.subdivisions[s.ID]
		if !ok {
			return subdivision.ErrSubdivisionNotFound
		}
		if err := checkSubdivisionName(st, s); err != nil {
			return err
		}
		clone := cloneSubdivision(s)
		clone.CreatedAt = existing.CreatedAt
		st.subdivisions[s.ID] = clone
		updated = cloneSubdivision(clone)
		return nil
	})
	return updated, err
}

// Delete は部署を削除します。所属関係が残っている場合は ErrSubdivisionInUse を返します。
func (r *SubdivisionRepository) Delete(ctx context.Context, id int64) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.subdivisions[id]; !ok {
			return subdivision.ErrSubdivisionNotFound
		}
		for k := range st.members {
			if k.subdivisionID == id {
				return subdivision.ErrSubdivisionInUse
			}
		}
		delete(st.subdivisions, id)
		return nil
	})
}

// FindByID は ID で部署を取得します。
func (r *SubdivisionRepository) FindByID(ctx context.Context, id int64) (*subdivision.Subdivision, error) {
	var found *subdivision.Subdivision
	err := r.store.read(ctx, func(st *state) error {
		s, ok := st.subdivisions[id]
		if !ok {
			return subdivision.ErrSubdivisionNotFound
		}
		found = cloneSubdivision(s)
		return nil
	})
	return found, err
}

// FindByName は名前で部署を取得します。
func (r *SubdivisionRepository) FindByName(ctx context.Context, name string) (*subdivision.Subdivision, error) {
	var found *subdivision.Subdivision
	err := r.store.read(ctx, func(st *state) error {
		for _, s := range st.subdivisions {
			if s.Name == name {
				found = cloneSubdivision(s)
				return nil
			}
		}
		return subdivision.ErrSubdivisionNotFound
	})
	return found, err
}

// LockByID は部署の存在を確認します。
func (r *SubdivisionRepository) LockByID(ctx context.Context, id int64) error {
	_, err := r.FindByID(ctx, id)
	return err
}

// FindProjection は部署と所属社員 ID を同じスナップショットから組み立てます。
func (r *SubdivisionRepository) FindProjection(ctx context.Context, id int64) (*subdivision.Projection, error) {
	var projection *subdivision.Projection
	err := r.store.read(ctx, func(st *state) error {
		s, ok := st.subdivisions[id]
		if !ok {
			return subdivision.ErrSubdivisionNotFound
		}
		found := cloneSubdivision(s)
		projection = &subdivision.Projection{
			ID:          found.ID,
			Name:        found.Name,
			LeaderID:    found.LeaderID,
			EmployeeIDs: memberIDs(st, id),
		}
		return nil
	})
	return projection, err
}

// AddMember は所属関係を追加します。既に存在する場合は何もしません。
func (r *SubdivisionRepository) AddMember(ctx context.Context, subdivisionID, employeeID int64) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.subdivisions[subdivisionID]; !ok {
			return subdivision.ErrSubdivisionNotFound
		}
		if _, ok := st.employees[employeeID]; !ok {
			return employee.ErrEmployeeNotFound
		}
		st.members[memberKey{subdivisionID: subdivisionID, employeeID: employeeID}] = struct{}{}
		return nil
	})
}

// RemoveMember は所属関係を削除します。
func (r *SubdivisionRepository) RemoveMember(ctx context.Context, subdivisionID, employeeID int64) error {
	return r.store.write(ctx, func(st *state) error {
		delete(st.members, memberKey{subdivisionID: subdivisionID, employeeID: employeeID})
		return nil
	})
}

// DeleteMembershipsByEmployee は社員の所属関係をすべて削除します。
func (r *SubdivisionRepository) DeleteMembershipsByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	return r.deleteMembers(ctx, func(k memberKey) bool { return k.employeeID == employeeID })
}

// DeleteMembershipsBySubdivision は部署の所属関係をすべて削除します。
func (r *SubdivisionRepository) DeleteMembershipsBySubdivision(ctx context.Context, subdivisionID int64) (int64, error) {
	return r.deleteMembers(ctx, func(k memberKey) bool { return k.subdivisionID == subdivisionID })
}

// ClearLeader は employeeID をリーダーとする部署のリーダー参照を外します。
func (r *SubdivisionRepository) ClearLeader(ctx context.Context, employeeID int64) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(st *state) error {
		for _, s := range st.subdivisions {
			if s.LeaderID != nil && *s.LeaderID == employeeID {
				s.LeaderID = nil
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *SubdivisionRepository) deleteMembers(ctx context.Context, match func(memberKey) bool) (int64, error) {
	var n int64
	err := r.store.write(ctx, func(st *state) error {
		for k := range st.members {
			if match(k) {
				delete(st.members, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func memberIDs(st *state, subdivisionID int64) []int64 {
	ids := []int64{}
	for k := range st.members {
		if k.subdivisionID == subdivisionID {
			ids = append(ids, k.employeeID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func checkSubdivisionName(st *state, s *subdivision.Subdivision) error {
	for _, other := range st.subdivisions {
		if other.ID != s.ID && other.Name == s.Name {
			return subdivision.ErrNameAlreadyExists
		}
	}
	return nil
}
