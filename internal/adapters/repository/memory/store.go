// Package memory はプロセス内メモリ上のストア実装です。
//
// 書き込みトランザクションは単一ライターで直列化され、失敗時は開始時点のスナップショットに戻します。
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
)

// ErrReadOnly は読み取り専用トランザクション内で書き込みを行った場合に返却されます。
var ErrReadOnly = errors.New("memory: write inside read-only transaction")

type memberKey struct {
	subdivisionID int64
	employeeID    int64
}

type sequences struct {
	employee    int64
	interval    int64
	subdivision int64
}

type state struct {
	employees    map[int64]*employee.Employee
	intervals    map[int64]*leave.Interval
	subdivisions map[int64]*subdivision.Subdivision
	members      map[memberKey]struct{}
	seq          sequences
}

func newState() *state {
	return &state{
		employees:    make(map[int64]*employee.Employee),
		intervals:    make(map[int64]*leave.Interval),
		subdivisions: make(map[int64]*subdivision.Subdivision),
		members:      make(map[memberKey]struct{}),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, e := range s.employees {
		c.employees[id] = cloneEmployee(e)
	}
	for id, in := range s.intervals {
		c.intervals[id] = cloneInterval(in)
	}
	for id, sub := range s.subdivisions {
		c.subdivisions[id] = cloneSubdivision(sub)
	}
	for k := range s.members {
		c.members[k] = struct{}{}
	}
	c.seq = s.seq
	return c
}

// Store は全集約の状態を保持します。
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{state: newState()}
}

type txContextKey struct{}

type txMarker struct {
	writable bool
}

func txFromContext(ctx context.Context) (txMarker, bool) {
	if ctx == nil {
		return txMarker{}, false
	}
	m, ok := ctx.Value(txContextKey{}).(txMarker)
	return m, ok
}

// WithinReadOnly は共有ロックを保持したまま fn を実行します。
func (s *Store) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, txContextKey{}, txMarker{writable: false}))
}

// WithinReadWrite は排他ロックを保持したまま fn を実行します。fn がエラーを返した場合は変更を破棄します。
func (s *Store) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if m, ok := txFromContext(ctx); ok {
		if !m.writable {
			return ErrReadOnly
		}
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txContextKey{}, txMarker{writable: true})); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Ping は常に成功します。
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(s.state)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) write(ctx context.Context, fn func(*state) error) error {
	if m, ok := txFromContext(ctx); ok {
		if !m.writable {
			return ErrReadOnly
		}
		return fn(s.state)
	}
	return s.WithinReadWrite(ctx, func(context.Context) error {
		return fn(s.state)
	})
}

func cloneEmployee(e *employee.Employee) *employee.Employee {
	if e == nil {
		return nil
	}
	copy := *e
	copy.Patronymic = cloneString(e.Patronymic)
	copy.Email = cloneString(e.Email)
	copy.Login = cloneString(e.Login)
	return &copy
}

func cloneInterval(in *leave.Interval) *leave.Interval {
	if in == nil {
		return nil
	}
	copy := *in
	return &copy
}

func cloneSubdivision(s *subdivision.Subdivision) *subdivision.Subdivision {
	if s == nil {
		return nil
	}
	copy := *s
	if s.LeaderID != nil {
		id := *s.LeaderID
		copy.LeaderID = &id
	}
	return &copy
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
