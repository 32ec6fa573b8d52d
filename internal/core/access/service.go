// Package access は社員の登録とアクセストークン発行を扱います。
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

var (
	ErrPasswordRequired = fmt.Errorf("access: password must be set: %w", outcome.ErrInvalidArgument)
	ErrLoginRequired    = fmt.Errorf("access: login must be set: %w", outcome.ErrInvalidArgument)
	// ErrInvalidCredentials はログイン名またはパスワードが一致しない場合に返却されます。
	ErrInvalidCredentials = fmt.Errorf("access: incorrect login or password: %w", outcome.ErrUnauthenticated)
)

// PasswordHasher はパスワードハッシュの抽象化です。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Token は発行されたアクセストークンです。
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenIssuer はアクセストークン発行の抽象化です。
type TokenIssuer interface {
	Issue(subject string) (Token, error)
}

// EmployeeStore は登録と照合に必要な社員ユースケースです。
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error)
	GetEmployeeByLogin(ctx context.Context, login string) (*employee.Employee, error)
}

// UseCase は登録とトークン発行の公開インターフェースです。
type UseCase interface {
	Register(ctx context.Context, in RegisterInput) (*Token, error)
	IssueToken(ctx context.Context, in IssueTokenInput) (*Token, error)
}

// Service は UseCase の実装です。
type Service struct {
	employees EmployeeStore
	hasher    PasswordHasher
	issuer    TokenIssuer
}

// NewService は Service を生成します。
func NewService(employees EmployeeStore, hasher PasswordHasher, issuer TokenIssuer) *Service {
	return &Service{employees: employees, hasher: hasher, issuer: issuer}
}

// RegisterInput は登録時の入力です。Password は平文で受け取ります。
type RegisterInput struct {
	Employee employee.CreateEmployeeInput
	Password string
}

// IssueTokenInput はトークン発行時の入力です。
type IssueTokenInput struct {
	Login    string
	Password string
}

// Register は社員を作成し、そのログイン名を subject とするトークンを返します。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Token, error) {
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if in.Employee.Login == nil || strings.TrimSpace(*in.Employee.Login) == "" {
		return nil, ErrLoginRequired
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	create := in.Employee
	create.PasswordHash = hash
	created, err := s.employees.CreateEmployee(ctx, create)
	if err != nil {
		return nil, err
	}

	return s.issue(*created.Login)
}

// IssueToken はログイン名とパスワードを照合してトークンを返します。
func (s *Service) IssueToken(ctx context.Context, in IssueTokenInput) (*Token, error) {
	login := strings.ToLower(strings.TrimSpace(in.Login))
	if login == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	found, err := s.employees.GetEmployeeByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) || errors.Is(err, employee.ErrInvalidLogin) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(found.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(*found.Login)
}

func (s *Service) issue(subject string) (*Token, error) {
	token, err := s.issuer.Issue(subject)
	if err != nil {
		return nil, fmt.Errorf("access: issue token: %w", err)
	}
	return &token, nil
}
