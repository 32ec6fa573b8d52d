package leave

import (
	"context"
	"fmt"
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

// Service は休暇・出張期間に関するユースケースをまとめます。
type Service struct {
	repo       Repository
	clock      Clock
	tx         TransactionManager
	checker    *Checker
	createRule OverlapRule
	updateRule OverlapRule
}

// UseCase は期間ユースケースの公開インターフェースです。
type UseCase interface {
	AddInterval(ctx context.Context, in AddIntervalInput) (*Interval, error)
	GetInterval(ctx context.Context, in GetIntervalInput) (*Interval, error)
	UpdateInterval(ctx context.Context, in UpdateIntervalInput) (*Interval, error)
	DeleteInterval(ctx context.Context, in DeleteIntervalInput) error
	ListEmployeeIntervals(ctx context.Context, in ListEmployeeIntervalsInput) ([]*Interval, error)
}

// Option は Service の生成オプションです。
type Option func(*Service)

// WithRules は追加時・更新時の重複判定ルールを差し替えます。
func WithRules(createRule, updateRule OverlapRule) Option {
	return func(s *Service) {
		s.createRule = createRule
		s.updateRule = updateRule
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{repo: repo, clock: clock, tx: tx, createRule: CreateRule, updateRule: UpdateRule}
	for _, opt := range opts {
		opt(s)
	}
	s.checker = NewChecker(repo, s.createRule, s.updateRule)
	return s
}

// AddIntervalInput は期間追加時の入力です。
type AddIntervalInput struct {
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Kind       Kind
}

// UpdateIntervalInput は期間更新時の入力です。nil のフィールドは既存値を引き継ぎます。
type UpdateIntervalInput struct {
	ID         int64
	EmployeeID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Kind       *Kind
}

// GetIntervalInput は期間取得時の入力です。
type GetIntervalInput struct {
	ID int64
}

// DeleteIntervalInput は期間削除時の入力です。
type DeleteIntervalInput struct {
	ID int64
}

// ListEmployeeIntervalsInput は社員の期間一覧取得時の入力です。
type ListEmployeeIntervalsInput struct {
	EmployeeID int64
	Kind       *Kind
}

// AddInterval は社員に期間を追加します。追加ルールで重複する場合は何も書き込まずに ErrSchedulingConflict を返します。
func (s *Service) AddInterval(ctx context.Context, in AddIntervalInput) (*Interval, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}
	kind, err := normalizeKind(in.Kind)
	if err != nil {
		return nil, err
	}
	start, end, err := normalizeRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	var created *Interval
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.checker.lock(txCtx, s.createRule, in.EmployeeID); err != nil {
			return err
		}
		if err := s.checker.CheckForCreate(txCtx, in.EmployeeID, start, end); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Interval{
			EmployeeID: in.EmployeeID,
			StartDate:  start,
			EndDate:    end,
			Kind:       kind,
			CreatedAt:  now,
			UpdatedAt:  now,
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

// GetInterval は ID で期間を取得します。
func (s *Service) GetInterval(ctx context.Context, in GetIntervalInput) (*Interval, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var found *Interval
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

// UpdateInterval は期間を部分更新します。
// 指定されたフィールドを既存値にマージした結果を、自身を除外して更新ルールで判定します。
// 更新ルールの範囲にかかわらず期間全体の排他ロックを取るため、追加・更新とは直列に実行されます。
func (s *Service) UpdateInterval(ctx context.Context, in UpdateIntervalInput) (*Interval, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}
	if in.EmployeeID != nil && *in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}

	var updated *Interval
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		// 既存値へのマージは排他ロック取得後に読み出した行を起点にします。
		if err := s.repo.LockSchedule(txCtx, true); err != nil {
			return err
		}
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		candidate := *existing
		if in.EmployeeID != nil {
			candidate.EmployeeID = *in.EmployeeID
		}
		if in.Kind != nil {
			kind, err := normalizeKind(*in.Kind)
			if err != nil {
				return err
			}
			candidate.Kind = kind
		}
		if in.StartDate != nil {
			candidate.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			candidate.EndDate = *in.EndDate
		}
		start, end, err := normalizeRange(candidate.StartDate, candidate.EndDate)
		if err != nil {
			return err
		}
		candidate.StartDate, candidate.EndDate = start, end

		if err := s.repo.LockOwner(txCtx, candidate.EmployeeID); err != nil {
			return err
		}
		if err := s.checker.CheckForUpdate(txCtx, candidate.ID, candidate.EmployeeID, start, end); err != nil {
			return err
		}

		candidate.UpdatedAt = s.clock.Now()
		result, err := s.repo.Update(txCtx, &candidate)
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

// DeleteInterval は期間を削除します。
func (s *Service) DeleteInterval(ctx context.Context, in DeleteIntervalInput) error {
	if in.ID <= 0 {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// ListEmployeeIntervals は社員の期間を開始日の昇順で返します。
func (s *Service) ListEmployeeIntervals(ctx context.Context, in ListEmployeeIntervalsInput) ([]*Interval, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}
	var kindPtr *Kind
	if in.Kind != nil {
		kind, err := normalizeKind(*in.Kind)
		if err != nil {
			return nil, err
		}
		kindPtr = &kind
	}

	var intervals []*Interval
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.EmployeeExists(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return employee.ErrEmployeeNotFound
		}
		result, err := s.repo.ListByEmployee(txCtx, in.EmployeeID, kindPtr)
		if err != nil {
			return err
		}
		intervals = result
		return nil
	}); err != nil {
		return nil, err
	}

	return intervals, nil
}

// ParseDate は YYYY-MM-DD 形式の暦日を UTC 0 時の time.Time に変換します。
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidDate)
	}
	return d, nil
}

func normalizeKind(raw Kind) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(raw))))
	if !kind.Valid() {
		return "", ErrInvalidKind
	}
	return kind, nil
}

func normalizeRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, ErrMissingDate
	}
	start, end = truncateDate(start), truncateDate(end)
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
