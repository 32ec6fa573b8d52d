package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"github.com/ogurasousui/orgrecords/internal/core/lifecycle"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type services struct {
	store        *Store
	employees    *employee.Service
	intervals    *leave.Service
	subdivisions *subdivision.Service
	lifecycle    *lifecycle.Manager
	employeeRepo *EmployeeRepository
	subRepo      *SubdivisionRepository
}

func newServices(t *testing.T, opts lifecycle.Options) *services {
	t.Helper()
	store := NewStore()
	employeeRepo := NewEmployeeRepository(store)
	intervalRepo := NewIntervalRepository(store)
	subRepo := NewSubdivisionRepository(store)
	logger, _ := logtest.NewNullLogger()
	return &services{
		store:        store,
		employees:    employee.NewService(employeeRepo, nil, store),
		intervals:    leave.NewService(intervalRepo, nil, store),
		subdivisions: subdivision.NewService(subRepo, employeeRepo, nil, store),
		lifecycle:    lifecycle.NewManager(employeeRepo, intervalRepo, subRepo, store, opts, logger),
		employeeRepo: employeeRepo,
		subRepo:      subRepo,
	}
}

func (s *services) hire(t *testing.T, last string) *employee.Employee {
	t.Helper()
	e, err := s.employees.CreateEmployee(context.Background(), employee.CreateEmployeeInput{LastName: last, FirstName: "x"})
	require.NoError(t, err)
	return e
}

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := leave.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestScenarioA_OverlapOnCreate(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	e1 := s.hire(t, "one")

	_, err := s.intervals.AddInterval(ctx, leave.AddIntervalInput{EmployeeID: e1.ID, StartDate: date(t, "2024-06-01"), EndDate: date(t, "2024-06-15"), Kind: leave.KindVacation})
	require.NoError(t, err)

	_, err = s.intervals.AddInterval(ctx, leave.AddIntervalInput{EmployeeID: e1.ID, StartDate: date(t, "2024-06-10"), EndDate: date(t, "2024-06-20"), Kind: leave.KindVacation})
	require.ErrorIs(t, err, outcome.ErrSchedulingConflict)

	_, err = s.intervals.AddInterval(ctx, leave.AddIntervalInput{EmployeeID: e1.ID, StartDate: date(t, "2024-06-16"), EndDate: date(t, "2024-06-20"), Kind: leave.KindVacation})
	require.NoError(t, err)

	list, err := s.intervals.ListEmployeeIntervals(ctx, leave.ListEmployeeIntervalsInput{EmployeeID: e1.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestScenarioB_MembershipProjection(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	leader := s.hire(t, "leader")
	member := s.hire(t, "member")

	eng, err := s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "eng", LeaderID: &leader.ID})
	require.NoError(t, err)
	require.Empty(t, eng.EmployeeIDs)

	_, err = s.subdivisions.AddMember(ctx, eng.ID, member.ID)
	require.NoError(t, err)

	projection, err := s.subdivisions.ReadProjection(ctx, eng.ID)
	require.NoError(t, err)
	require.Equal(t, "eng", projection.Name)
	require.Equal(t, leader.ID, *projection.LeaderID)
	require.Equal(t, []int64{member.ID}, projection.EmployeeIDs)

	removed, err := s.subdivisions.RemoveMember(ctx, eng.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{}, removed.EmployeeIDs)
}

func TestScenarioC_UnknownLeaderLeavesNoRow(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	missing := int64(404)

	_, err := s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "ghosts", LeaderID: &missing})
	require.ErrorIs(t, err, outcome.ErrNotFound)

	_, err = s.subRepo.FindByName(ctx, "ghosts")
	require.ErrorIs(t, err, subdivision.ErrSubdivisionNotFound)
}

func TestScenarioD_ConcurrentAddsForSameEmployee(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	e := s.hire(t, "racer")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	base, end := date(t, "2024-08-01"), date(t, "2024-08-10")
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			<-start
			// every candidate contains 2024-08-10, so at most one can be accepted
			_, err := s.intervals.AddInterval(context.Background(), leave.AddIntervalInput{
				EmployeeID: e.ID,
				StartDate:  base.AddDate(0, 0, offset),
				EndDate:    end,
				Kind:       leave.KindVacation,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, leave.ErrSchedulingConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, accepted)
	require.Equal(t, workers-1, conflicts)
}

func TestStore_RollbackOnError(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.store.WithinReadWrite(ctx, func(txCtx context.Context) error {
		_, err := s.employeeRepo.Create(txCtx, &employee.Employee{LastName: "temp", FirstName: "x", IsSupervisor: employee.FlagNo, IsVacation: employee.FlagNo})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.store.WithinReadOnly(ctx, func(txCtx context.Context) error {
		_, err := s.employeeRepo.Create(txCtx, &employee.Employee{LastName: "temp"})
		return err
	})
	require.ErrorIs(t, err, ErrReadOnly)

	e := s.hire(t, "after")
	require.Equal(t, int64(1), e.ID, "rolled back sequence must be reused")
}

func TestLifecycle_DeleteEmployeeCascades(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	leader := s.hire(t, "leader")
	member := s.hire(t, "member")

	sub, err := s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "ops", LeaderID: &leader.ID})
	require.NoError(t, err)
	_, err = s.subdivisions.AddMember(ctx, sub.ID, leader.ID)
	require.NoError(t, err)
	_, err = s.subdivisions.AddMember(ctx, sub.ID, member.ID)
	require.NoError(t, err)
	_, err = s.intervals.AddInterval(ctx, leave.AddIntervalInput{EmployeeID: leader.ID, StartDate: date(t, "2024-01-01"), EndDate: date(t, "2024-01-02"), Kind: leave.KindBusiness})
	require.NoError(t, err)

	err = s.employeeRepo.Delete(ctx, leader.ID)
	require.ErrorIs(t, err, employee.ErrEmployeeInUse, "a bare delete must not cascade")

	removal, err := s.lifecycle.DeleteEmployee(ctx, leader.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), removal.Intervals)
	require.Equal(t, int64(1), removal.Memberships)

	_, err = s.employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: leader.ID})
	require.ErrorIs(t, err, outcome.ErrNotFound)

	projection, err := s.subdivisions.ReadProjection(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{member.ID}, projection.EmployeeIDs)
	require.NotNil(t, projection.LeaderID, "leader reference is left dangling by default")
	require.Equal(t, leader.ID, *projection.LeaderID)
}

func TestLifecycle_DeleteEmployeeClearsLeaderWhenConfigured(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{ClearDanglingLeaders: true})
	ctx := context.Background()
	leader := s.hire(t, "leader")

	sub, err := s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "ops", LeaderID: &leader.ID})
	require.NoError(t, err)

	_, err = s.lifecycle.DeleteEmployee(ctx, leader.ID)
	require.NoError(t, err)

	projection, err := s.subdivisions.ReadProjection(ctx, sub.ID)
	require.NoError(t, err)
	require.Nil(t, projection.LeaderID)
}

func TestLifecycle_DeleteSubdivisionKeepsEmployees(t *testing.T) {
	t.Parallel()

	s := newServices(t, lifecycle.Options{})
	ctx := context.Background()
	member := s.hire(t, "member")

	sub, err := s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "temp"})
	require.NoError(t, err)
	_, err = s.subdivisions.AddMember(ctx, sub.ID, member.ID)
	require.NoError(t, err)

	removal, err := s.lifecycle.DeleteSubdivision(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), removal.Memberships)

	_, err = s.subdivisions.ReadProjection(ctx, sub.ID)
	require.ErrorIs(t, err, subdivision.ErrSubdivisionNotFound)

	_, err = s.employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: member.ID})
	require.NoError(t, err)

	// the name is free again
	_, err = s.subdivisions.CreateSubdivision(ctx, subdivision.CreateSubdivisionInput{Name: "temp"})
	require.NoError(t, err)
}
