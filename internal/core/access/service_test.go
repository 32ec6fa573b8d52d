package access

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

type fakeEmployees struct {
	byLogin map[string]*employee.Employee
	created []employee.CreateEmployeeInput
	err     error
}

func (f *fakeEmployees) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	login := *in.Login
	e := &employee.Employee{ID: int64(len(f.created)), Login: &login, PasswordHash: in.PasswordHash}
	f.byLogin[login] = e
	return e, nil
}

func (f *fakeEmployees) GetEmployeeByLogin(ctx context.Context, login string) (*employee.Employee, error) {
	e, ok := f.byLogin[login]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeIssuer struct {
	subjects []string
}

func (f *fakeIssuer) Issue(subject string) (Token, error) {
	f.subjects = append(f.subjects, subject)
	return Token{AccessToken: "token-" + subject, TokenType: "bearer"}, nil
}

func newTestService() (*Service, *fakeEmployees, *fakeIssuer) {
	employees := &fakeEmployees{byLogin: map[string]*employee.Employee{}}
	issuer := &fakeIssuer{}
	return NewService(employees, fakeHasher{}, issuer), employees, issuer
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	svc, employees, issuer := newTestService()

	token, err := svc.Register(context.Background(), RegisterInput{
		Employee: employee.CreateEmployeeInput{LastName: "Doe", FirstName: "John", Login: ptr("jdoe")},
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token.AccessToken != "token-jdoe" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if len(employees.created) != 1 || employees.created[0].PasswordHash != "hashed:pw" {
		t.Fatalf("password should be hashed before persisting: %+v", employees.created)
	}
	if len(issuer.subjects) != 1 || issuer.subjects[0] != "jdoe" {
		t.Fatalf("unexpected subjects: %v", issuer.subjects)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc, employees, _ := newTestService()

	if _, err := svc.Register(context.Background(), RegisterInput{
		Employee: employee.CreateEmployeeInput{LastName: "a", FirstName: "b", Login: ptr("x")},
	}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{
		Employee: employee.CreateEmployeeInput{LastName: "a", FirstName: "b", Login: ptr("  ")},
		Password: "pw",
	}); !errors.Is(err, outcome.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank login, got %v", err)
	}

	employees.err = employee.ErrLoginAlreadyExists
	if _, err := svc.Register(context.Background(), RegisterInput{
		Employee: employee.CreateEmployeeInput{LastName: "a", FirstName: "b", Login: ptr("x")},
		Password: "pw",
	}); !errors.Is(err, employee.ErrLoginAlreadyExists) {
		t.Fatalf("expected login conflict to pass through, got %v", err)
	}
}

func TestService_IssueToken(t *testing.T) {
	t.Parallel()

	svc, employees, _ := newTestService()
	employees.byLogin["jdoe"] = &employee.Employee{ID: 1, Login: ptr("jdoe"), PasswordHash: "hashed:pw"}

	token, err := svc.IssueToken(context.Background(), IssueTokenInput{Login: " JDoe ", Password: "pw"})
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}
	if token.AccessToken != "token-jdoe" {
		t.Fatalf("unexpected token: %+v", token)
	}

	cases := []IssueTokenInput{
		{Login: "jdoe", Password: "wrong"},
		{Login: "ghost", Password: "pw"},
		{Login: "", Password: "pw"},
		{Login: "jdoe", Password: ""},
	}
	for _, in := range cases {
		_, err := svc.IssueToken(context.Background(), in)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%+v: expected ErrInvalidCredentials, got %v", in, err)
		}
		if !errors.Is(err, outcome.ErrUnauthenticated) {
			t.Errorf("%+v: expected unauthenticated kind, got %v", in, err)
		}
	}
}
