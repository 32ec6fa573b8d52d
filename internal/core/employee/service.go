package employee

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	GetEmployeeByLogin(ctx context.Context, login string) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateEmployeeInput は社員作成時の入力です。PasswordHash はハッシュ済みの値を受け取ります。
type CreateEmployeeInput struct {
	LastName     string
	FirstName    string
	Patronymic   *string
	Email        *string
	Login        *string
	PasswordHash string
	IsSupervisor *Flag
	IsVacation   *Flag
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更しません。
type UpdateEmployeeInput struct {
	ID           int64
	LastName     *string
	FirstName    *string
	Patronymic   *string
	Email        *string
	Login        *string
	PasswordHash *string
	IsSupervisor *Flag
	IsVacation   *Flag
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID int64
}

// CreateEmployee は新しい社員を登録します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	lastName, err := normalizeName(in.LastName, ErrInvalidLastName)
	if err != nil {
		return nil, err
	}
	firstName, err := normalizeName(in.FirstName, ErrInvalidFirstName)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	login, err := normalizeLogin(in.Login)
	if err != nil {
		return nil, err
	}
	isSupervisor, err := normalizeFlag(in.IsSupervisor)
	if err != nil {
		return nil, err
	}
	isVacation, err := normalizeFlag(in.IsVacation)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureLoginNotExists(txCtx, login, 0); err != nil {
			return err
		}
		if err := s.ensureEmailNotExists(txCtx, email, 0); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Employee{
			LastName:     lastName,
			FirstName:    firstName,
			Patronymic:   normalizeOptional(in.Patronymic),
			Email:        email,
			Login:        login,
			PasswordHash: in.PasswordHash,
			IsSupervisor: isSupervisor,
			IsVacation:   isVacation,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmployee は ID で社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var found *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// GetEmployeeByLogin はログイン名で社員を取得します。
func (s *Service) GetEmployeeByLogin(ctx context.Context, login string) (*Employee, error) {
	normalized, err := normalizeLogin(&login)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, ErrInvalidLogin
	}

	var found *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByLogin(txCtx, *normalized)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// UpdateEmployee は社員情報を部分更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.LastName != nil {
			name, err := normalizeName(*in.LastName, ErrInvalidLastName)
			if err != nil {
				return err
			}
			existing.LastName = name
		}

		if in.FirstName != nil {
			name, err := normalizeName(*in.FirstName, ErrInvalidFirstName)
			if err != nil {
				return err
			}
			existing.FirstName = name
		}

		if in.Patronymic != nil {
			existing.Patronymic = normalizeOptional(in.Patronymic)
		}

		if in.Email != nil {
			email, err := normalizeEmail(in.Email)
			if err != nil {
				return err
			}
			if !equalOptional(email, existing.Email) {
				if err := s.ensureEmailNotExists(txCtx, email, existing.ID); err != nil {
					return err
				}
			}
			existing.Email = email
		}

		if in.Login != nil {
			login, err := normalizeLogin(in.Login)
			if err != nil {
				return err
			}
			if !equalOptional(login, existing.Login) {
				if err := s.ensureLoginNotExists(txCtx, login, existing.ID); err != nil {
					return err
				}
			}
			existing.Login = login
		}

		if in.PasswordHash != nil {
			existing.PasswordHash = *in.PasswordHash
		}

		if in.IsSupervisor != nil {
			flag, err := parseFlag(*in.IsSupervisor)
			if err != nil {
				return err
			}
			existing.IsSupervisor = flag
		}

		if in.IsVacation != nil {
			flag, err := parseFlag(*in.IsVacation)
			if err != nil {
				return err
			}
			existing.IsVacation = flag
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) ensureLoginNotExists(ctx context.Context, login *string, selfID int64) error {
	if login == nil {
		return nil
	}
	found, err := s.repo.FindByLogin(ctx, *login)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if found != nil && found.ID != selfID {
		return ErrLoginAlreadyExists
	}
	return nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email *string, selfID int64) error {
	if email == nil {
		return nil
	}
	found, err := s.repo.FindByEmail(ctx, *email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if found != nil && found.ID != selfID {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeName(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid
	}
	return strings.ToLower(trimmed), nil
}

func normalizeOptional(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*raw))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeEmail(raw *string) (*string, error) {
	email := normalizeOptional(raw)
	if email == nil {
		return nil, nil
	}
	addr, err := mail.ParseAddress(*email)
	if err != nil || addr.Address != *email {
		return nil, fmt.Errorf("%q: %w", *email, ErrInvalidEmail)
	}
	return email, nil
}

func normalizeLogin(raw *string) (*string, error) {
	login := normalizeOptional(raw)
	if login == nil {
		return nil, nil
	}
	if strings.ContainsAny(*login, " \t\n") {
		return nil, ErrInvalidLogin
	}
	return login, nil
}

func normalizeFlag(raw *Flag) (Flag, error) {
	if raw == nil || *raw == "" {
		return FlagNo, nil
	}
	return parseFlag(*raw)
}

func parseFlag(raw Flag) (Flag, error) {
	flag := Flag(strings.ToLower(strings.TrimSpace(string(raw))))
	if !flag.Valid() {
		return "", ErrInvalidFlag
	}
	return flag, nil
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
