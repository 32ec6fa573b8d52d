package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/ogurasousui/orgrecords/internal/adapters/repository/memory"
	"github.com/ogurasousui/orgrecords/internal/core/access"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"github.com/ogurasousui/orgrecords/internal/core/lifecycle"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	"github.com/ogurasousui/orgrecords/internal/platform/auth"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type testClient struct {
	t      *testing.T
	client *Client
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	store := memory.NewStore()
	employeeRepo := memory.NewEmployeeRepository(store)
	intervalRepo := memory.NewIntervalRepository(store)
	subdivisionRepo := memory.NewSubdivisionRepository(store)
	logger, _ := logtest.NewNullLogger()

	hasher := auth.NewBcryptHasher(4)
	issuer, err := auth.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	employees := employee.NewService(employeeRepo, nil, store)
	h := NewOrgRecordsHandler(Services{
		Access:       access.NewService(employees, hasher, issuer),
		Employees:    employees,
		Intervals:    leave.NewService(intervalRepo, nil, store),
		Subdivisions: subdivision.NewService(subdivisionRepo, employeeRepo, nil, store),
		Lifecycle:    lifecycle.NewManager(employeeRepo, intervalRepo, subdivisionRepo, store, lifecycle.Options{}, logger),
		Hasher:       hasher,
	})

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterOrgRecordsServer(srv, h)
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})
	return &testClient{t: t, client: NewClient(conn)}
}

func (c *testClient) call(method string, fields map[string]interface{}) (*structpb.Struct, error) {
	c.t.Helper()
	req, err := structpb.NewStruct(fields)
	require.NoError(c.t, err)
	return c.client.Call(context.Background(), method, req)
}

func (c *testClient) mustCall(method string, fields map[string]interface{}) map[string]interface{} {
	c.t.Helper()
	resp, err := c.call(method, fields)
	require.NoError(c.t, err, method)
	return resp.AsMap()
}

func (c *testClient) expectCode(code codes.Code, method string, fields map[string]interface{}) {
	c.t.Helper()
	_, err := c.call(method, fields)
	require.Equal(c.t, code, status.Code(err), "%s: %v", method, err)
}

func TestOrgRecordsHandler_Employees(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)

	token := c.mustCall("RegisterEmployee", map[string]interface{}{
		"last_name": "Ivanov", "first_name": "Ivan", "login": "ivan", "password": "pw", "email": "Ivan@Example.com",
	})
	require.Equal(t, "bearer", token["token_type"])
	require.NotEmpty(t, token["access_token"])

	issued := c.mustCall("IssueToken", map[string]interface{}{"login": "IVAN", "password": "pw"})
	require.NotEmpty(t, issued["access_token"])
	c.expectCode(codes.Unauthenticated, "IssueToken", map[string]interface{}{"login": "ivan", "password": "bad"})
	c.expectCode(codes.AlreadyExists, "RegisterEmployee", map[string]interface{}{
		"last_name": "other", "first_name": "x", "login": "ivan", "password": "pw",
	})
	c.expectCode(codes.InvalidArgument, "RegisterEmployee", map[string]interface{}{
		"last_name": "other", "first_name": "x", "login": "petr",
	})

	added := c.mustCall("AddEmployee", map[string]interface{}{
		"last_name": " Petrov ", "first_name": "Petr", "patronymic": nil, "is_supervisor": "yes",
	})
	require.Equal(t, "petrov", added["last_name"])
	require.Equal(t, "yes", added["is_supervisor"])
	require.Equal(t, "no", added["is_vacation"])
	require.Nil(t, added["patronymic"])
	require.NotContains(t, added, "password")
	require.NotContains(t, added, "password_hash")

	id := added["id"].(float64)
	got := c.mustCall("GetEmployee", map[string]interface{}{"id": id})
	require.Equal(t, "petr", got["first_name"])

	updated := c.mustCall("UpdateEmployee", map[string]interface{}{"id": id, "is_vacation": "yes", "login": "petr"})
	require.Equal(t, "yes", updated["is_vacation"])
	require.Equal(t, "petr", updated["login"])
	require.Equal(t, "petrov", updated["last_name"])

	c.expectCode(codes.NotFound, "GetEmployee", map[string]interface{}{"id": 999})
	c.expectCode(codes.InvalidArgument, "GetEmployee", map[string]interface{}{"id": 0})
	c.expectCode(codes.InvalidArgument, "GetEmployee", map[string]interface{}{"id": 1.5})
	c.expectCode(codes.InvalidArgument, "AddEmployee", map[string]interface{}{"first_name": "x"})
	c.expectCode(codes.InvalidArgument, "AddEmployee", map[string]interface{}{"last_name": "x", "first_name": "y", "unknown": true})
	c.expectCode(codes.InvalidArgument, "AddEmployee", map[string]interface{}{"last_name": "x", "first_name": "y", "is_vacation": "maybe"})
	c.expectCode(codes.InvalidArgument, "AddEmployee", map[string]interface{}{"last_name": "x", "first_name": "y", "email": "not-an-email"})

	deleted := c.mustCall("DeleteEmployee", map[string]interface{}{"id": id})
	require.Equal(t, "employee deleted", deleted["detail"])
	c.expectCode(codes.NotFound, "GetEmployee", map[string]interface{}{"id": id})
}

func TestOrgRecordsHandler_Subdivisions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	e1 := c.mustCall("AddEmployee", map[string]interface{}{"last_name": "one", "first_name": "x"})["id"].(float64)
	e2 := c.mustCall("AddEmployee", map[string]interface{}{"last_name": "two", "first_name": "x"})["id"].(float64)

	c.expectCode(codes.NotFound, "AddSubdivision", map[string]interface{}{"name": "sales", "leader_id": 999})
	c.expectCode(codes.NotFound, "GetSubdivision", map[string]interface{}{"id": 1})

	created := c.mustCall("AddSubdivision", map[string]interface{}{"name": "Sales", "leader_id": e1})
	require.Equal(t, "sales", created["name"])
	require.Equal(t, e1, created["leader_id"])
	require.Equal(t, []interface{}{}, created["employee_ids"])
	sub := created["id"].(float64)

	c.expectCode(codes.AlreadyExists, "AddSubdivision", map[string]interface{}{"name": "sales"})

	c.mustCall("AddMember", map[string]interface{}{"subdivision_id": sub, "employee_id": e2})
	again := c.mustCall("AddMember", map[string]interface{}{"subdivision_id": sub, "employee_id": e2})
	require.Equal(t, []interface{}{e2}, again["employee_ids"])
	c.expectCode(codes.NotFound, "AddMember", map[string]interface{}{"subdivision_id": sub, "employee_id": 999})

	led := c.mustCall("AssignLeader", map[string]interface{}{"subdivision_id": sub, "leader_id": e2})
	require.Equal(t, e2, led["leader_id"])

	renamed := c.mustCall("RenameSubdivision", map[string]interface{}{"id": sub, "name": "Marketing"})
	require.Equal(t, "marketing", renamed["name"])

	removed := c.mustCall("RemoveMember", map[string]interface{}{"subdivision_id": sub, "employee_id": e2})
	require.Equal(t, []interface{}{}, removed["employee_ids"])

	c.mustCall("AddMember", map[string]interface{}{"subdivision_id": sub, "employee_id": e1})
	deleted := c.mustCall("DeleteSubdivision", map[string]interface{}{"id": sub})
	require.Equal(t, "subdivision deleted", deleted["detail"])
	require.Equal(t, float64(1), deleted["removed_memberships"])

	c.mustCall("GetEmployee", map[string]interface{}{"id": e1})
}

func TestOrgRecordsHandler_Intervals(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	e1 := c.mustCall("AddEmployee", map[string]interface{}{"last_name": "one", "first_name": "x"})["id"].(float64)
	e2 := c.mustCall("AddEmployee", map[string]interface{}{"last_name": "two", "first_name": "x"})["id"].(float64)

	first := c.mustCall("AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "2024-06-01", "end_date": "2024-06-15", "type": "vacation"})
	require.Equal(t, "2024-06-01", first["start_date"])
	require.Equal(t, "vacation", first["type"])

	c.expectCode(codes.AlreadyExists, "AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "2024-06-15", "end_date": "2024-06-20", "type": "business"})
	c.expectCode(codes.InvalidArgument, "AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "2024-06-20", "end_date": "2024-06-16", "type": "vacation"})
	c.expectCode(codes.InvalidArgument, "AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "06/20/2024", "end_date": "2024-06-21", "type": "vacation"})
	c.expectCode(codes.InvalidArgument, "AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "2024-07-01", "end_date": "2024-07-02", "type": "holiday"})
	c.expectCode(codes.NotFound, "AddInterval", map[string]interface{}{"employee_id": 999, "start_date": "2024-07-01", "end_date": "2024-07-02", "type": "vacation"})

	trip := c.mustCall("AddInterval", map[string]interface{}{"employee_id": e1, "start_date": "2024-07-01", "end_date": "2024-07-03", "type": "business"})
	c.mustCall("AddInterval", map[string]interface{}{"employee_id": e2, "start_date": "2024-08-01", "end_date": "2024-08-10", "type": "vacation"})

	list := c.mustCall("ListEmployeeIntervals", map[string]interface{}{"employee_id": e1})
	require.Equal(t, e1, list["employee_id"])
	require.Len(t, list["intervals"], 2)
	filtered := c.mustCall("ListEmployeeIntervals", map[string]interface{}{"employee_id": e1, "type": "business"})
	require.Len(t, filtered["intervals"], 1)
	c.expectCode(codes.NotFound, "ListEmployeeIntervals", map[string]interface{}{"employee_id": 999})

	tripID := trip["id"].(float64)
	c.expectCode(codes.AlreadyExists, "UpdateInterval", map[string]interface{}{"id": tripID, "start_date": "2024-08-05", "end_date": "2024-08-06"})
	moved := c.mustCall("UpdateInterval", map[string]interface{}{"id": tripID, "end_date": "2024-07-05"})
	require.Equal(t, "2024-07-01", moved["start_date"])
	require.Equal(t, "2024-07-05", moved["end_date"])
	require.Equal(t, "business", moved["type"])

	got := c.mustCall("GetInterval", map[string]interface{}{"id": tripID})
	require.Equal(t, "2024-07-05", got["end_date"])

	deleted := c.mustCall("DeleteInterval", map[string]interface{}{"id": tripID})
	require.Equal(t, "interval deleted", deleted["detail"])
	c.expectCode(codes.NotFound, "GetInterval", map[string]interface{}{"id": tripID})

	removal := c.mustCall("DeleteEmployee", map[string]interface{}{"id": e1})
	require.Equal(t, float64(1), removal["removed_intervals"])
}

func TestToStatusError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code codes.Code
	}{
		{err: employee.ErrInvalidLastName, code: codes.InvalidArgument},
		{err: employee.ErrEmployeeNotFound, code: codes.NotFound},
		{err: subdivision.ErrLeaderNotFound, code: codes.NotFound},
		{err: employee.ErrLoginAlreadyExists, code: codes.AlreadyExists},
		{err: leave.ErrSchedulingConflict, code: codes.AlreadyExists},
		{err: outcome.Unavailable(errors.New("conn reset")), code: codes.Unavailable},
		{err: access.ErrInvalidCredentials, code: codes.Unauthenticated},
		{err: fmt.Errorf("wrapped: %w", context.Canceled), code: codes.Canceled},
		{err: status.Error(codes.ResourceExhausted, "slow down"), code: codes.ResourceExhausted},
		{err: errors.New("boom"), code: codes.Internal},
	}

	for _, tc := range cases {
		if got := status.Code(toStatusError(tc.err)); got != tc.code {
			t.Errorf("%v: expected %s, got %s", tc.err, tc.code, got)
		}
	}
	if toStatusError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestDecodeRequest_NilRequest(t *testing.T) {
	t.Parallel()

	var in idRequest
	err := decodeRequest(nil, &in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
