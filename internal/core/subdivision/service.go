package subdivision

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ogurasousui/orgrecords/internal/core/employee"
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

// Service は部署と所属関係に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeReader
	clock     Clock
	tx        TransactionManager
}

// UseCase は部署ユースケースの公開インターフェースです。
type UseCase interface {
	CreateSubdivision(ctx context.Context, in CreateSubdivisionInput) (*Projection, error)
	RenameSubdivision(ctx context.Context, in RenameSubdivisionInput) (*Projection, error)
	ReadProjection(ctx context.Context, id int64) (*Projection, error)
	AssignLeader(ctx context.Context, subdivisionID, leaderID int64) (*Projection, error)
	AddMember(ctx context.Context, subdivisionID, employeeID int64) (*Projection, error)
	RemoveMember(ctx context.Context, subdivisionID, employeeID int64) (*Projection, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeReader, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, clock: clock, tx: tx}
}

// CreateSubdivisionInput は部署作成時の入力です。
type CreateSubdivisionInput struct {
	Name     string
	LeaderID *int64
}

// RenameSubdivisionInput は部署名変更時の入力です。
type RenameSubdivisionInput struct {
	ID   int64
	Name string
}

// CreateSubdivision は部署を作成します。LeaderID が解決できない場合は何も保存せずに ErrLeaderNotFound を返します。
func (s *Service) CreateSubdivision(ctx context.Context, in CreateSubdivisionInput) (*Projection, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.LeaderID != nil && *in.LeaderID <= 0 {
		return nil, ErrInvalidEmployeeID
	}

	var projection *Projection
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameNotExists(txCtx, name, 0); err != nil {
			return err
		}

		var leaderID *int64
		if in.LeaderID != nil {
			if err := s.ensureLeader(txCtx, *in.LeaderID); err != nil {
				return err
			}
			id := *in.LeaderID
			leaderID = &id
		}

		now := s.clock.Now()
		created, err := s.repo.Create(txCtx, &Subdivision{
			Name:      name,
			LeaderID:  leaderID,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		projection = &Projection{ID: created.ID, Name: created.Name, LeaderID: created.LeaderID, EmployeeIDs: []int64{}}
		return nil
	}); err != nil {
		return nil, err
	}

	return projection, nil
}

// RenameSubdivision は部署名を変更します。
func (s *Service) RenameSubdivision(ctx context.Context, in RenameSubdivisionInput) (*Projection, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var projection *Projection
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.lockAndFind(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.Name != name {
			if err := s.ensureNameNotExists(txCtx, name, existing.ID); err != nil {
				return err
			}
			existing.Name = name
			existing.UpdatedAt = s.clock.Now()
			if _, err := s.repo.Update(txCtx, existing); err != nil {
				return err
			}
		}

		result, err := s.repo.FindProjection(txCtx, in.ID)
		if err != nil {
			return err
		}
		projection = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projection, nil
}

// ReadProjection は部署の読み取りモデルを返します。
func (s *Service) ReadProjection(ctx context.Context, id int64) (*Projection, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var projection *Projection
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindProjection(txCtx, id)
		if err != nil {
			return err
		}
		projection = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projection, nil
}

// lockAndFind は部署行を排他ロックしてから読み出します。全列を書き戻す更新はこの値を起点にします。
func (s *Service) lockAndFind(ctx context.Context, id int64) (*Subdivision, error) {
	if err := s.repo.LockByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ensureNameNotExists(ctx context.Context, name string, selfID int64) error {
	found, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrSubdivisionNotFound) {
		return err
	}
	if found != nil && found.ID != selfID {
		return ErrNameAlreadyExists
	}
	return nil
}

func (s *Service) ensureLeader(ctx context.Context, leaderID int64) error {
	if _, err := s.employees.FindByID(ctx, leaderID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return ErrLeaderNotFound
		}
		return err
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return strings.ToLower(trimmed), nil
}
