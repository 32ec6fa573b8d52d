package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	steps []string
}

type fakeEmployees struct {
	rec    *recorder
	exists map[int64]bool
}

func (f *fakeEmployees) LockByID(_ context.Context, id int64) error {
	f.rec.steps = append(f.rec.steps, "lock employee")
	if !f.exists[id] {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (f *fakeEmployees) Delete(_ context.Context, id int64) error {
	f.rec.steps = append(f.rec.steps, "delete employee")
	delete(f.exists, id)
	return nil
}

type fakeIntervals struct {
	rec *recorder
	n   int64
	err error
}

func (f *fakeIntervals) DeleteByEmployee(context.Context, int64) (int64, error) {
	f.rec.steps = append(f.rec.steps, "delete intervals")
	return f.n, f.err
}

type fakeSubdivisions struct {
	rec    *recorder
	exists map[int64]bool
}

func (f *fakeSubdivisions) LockByID(_ context.Context, id int64) error {
	f.rec.steps = append(f.rec.steps, "lock subdivision")
	if !f.exists[id] {
		return subdivision.ErrSubdivisionNotFound
	}
	return nil
}

func (f *fakeSubdivisions) Delete(_ context.Context, id int64) error {
	f.rec.steps = append(f.rec.steps, "delete subdivision")
	delete(f.exists, id)
	return nil
}

func (f *fakeSubdivisions) DeleteMembershipsByEmployee(context.Context, int64) (int64, error) {
	f.rec.steps = append(f.rec.steps, "delete employee memberships")
	return 2, nil
}

func (f *fakeSubdivisions) DeleteMembershipsBySubdivision(context.Context, int64) (int64, error) {
	f.rec.steps = append(f.rec.steps, "delete subdivision memberships")
	return 4, nil
}

func (f *fakeSubdivisions) ClearLeader(context.Context, int64) (int64, error) {
	f.rec.steps = append(f.rec.steps, "clear leader")
	return 1, nil
}

type countingTx struct {
	calls int
}

func (c *countingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func newFixture(opts Options) (*Manager, *recorder, *fakeIntervals, *countingTx, *logtest.Hook) {
	rec := &recorder{}
	intervals := &fakeIntervals{rec: rec, n: 3}
	tx := &countingTx{}
	logger, hook := logtest.NewNullLogger()
	m := NewManager(
		&fakeEmployees{rec: rec, exists: map[int64]bool{1: true}},
		intervals,
		&fakeSubdivisions{rec: rec, exists: map[int64]bool{10: true}},
		tx,
		opts,
		logger,
	)
	return m, rec, intervals, tx, hook
}

func TestManager_DeleteEmployee_KeepsLeaderByDefault(t *testing.T) {
	t.Parallel()

	m, rec, _, tx, hook := newFixture(Options{})

	removal, err := m.DeleteEmployee(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, &EmployeeRemoval{Intervals: 3, Memberships: 2}, removal)
	require.Equal(t, []string{"lock employee", "delete intervals", "delete employee memberships", "delete employee"}, rec.steps)
	require.Equal(t, 1, tx.calls)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, int64(1), entry.Data["employee_id"])
}

func TestManager_DeleteEmployee_ClearsLeadersWhenEnabled(t *testing.T) {
	t.Parallel()

	m, rec, _, _, _ := newFixture(Options{ClearDanglingLeaders: true})

	removal, err := m.DeleteEmployee(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), removal.LeadersCleared)
	require.Contains(t, rec.steps, "clear leader")
}

func TestManager_DeleteEmployee_Errors(t *testing.T) {
	t.Parallel()

	m, rec, intervals, _, hook := newFixture(Options{})

	_, err := m.DeleteEmployee(context.Background(), 0)
	require.ErrorIs(t, err, outcome.ErrInvalidArgument)

	_, err = m.DeleteEmployee(context.Background(), 2)
	require.ErrorIs(t, err, outcome.ErrNotFound)
	require.Equal(t, []string{"lock employee"}, rec.steps)

	rec.steps = nil
	intervals.err = outcome.Unavailable(errors.New("connection reset"))
	_, err = m.DeleteEmployee(context.Background(), 1)
	require.ErrorIs(t, err, outcome.ErrUnavailable)
	require.NotContains(t, rec.steps, "delete employee")
	require.Empty(t, hook.AllEntries())
}

func TestManager_DeleteSubdivision(t *testing.T) {
	t.Parallel()

	m, rec, _, _, _ := newFixture(Options{})

	removal, err := m.DeleteSubdivision(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(4), removal.Memberships)
	require.Equal(t, []string{"lock subdivision", "delete subdivision memberships", "delete subdivision"}, rec.steps)

	_, err = m.DeleteSubdivision(context.Background(), 10)
	require.ErrorIs(t, err, subdivision.ErrSubdivisionNotFound)

	_, err = m.DeleteSubdivision(context.Background(), -1)
	require.ErrorIs(t, err, subdivision.ErrInvalidID)
}
