package leave

import (
	"context"
	"time"
)

// Checker は候補期間が既存期間と重なるかを判定します。
type Checker struct {
	repo       Repository
	createRule OverlapRule
	updateRule OverlapRule
}

// NewChecker は Checker を生成します。
func NewChecker(repo Repository, createRule, updateRule OverlapRule) *Checker {
	return &Checker{repo: repo, createRule: createRule, updateRule: updateRule}
}

// CheckForCreate は新規期間に対して追加ルールで重複を判定します。重複時は ErrSchedulingConflict を返します。
func (c *Checker) CheckForCreate(ctx context.Context, employeeID int64, start, end time.Time) error {
	return c.check(ctx, c.createRule.query(employeeID, nil, start, end))
}

// CheckForUpdate は更新後の期間に対して更新ルールで重複を判定します。intervalID 自身は対象外です。
func (c *Checker) CheckForUpdate(ctx context.Context, intervalID, employeeID int64, start, end time.Time) error {
	exclude := intervalID
	return c.check(ctx, c.updateRule.query(employeeID, &exclude, start, end))
}

func (c *Checker) check(ctx context.Context, q OverlapQuery) error {
	found, err := c.repo.ExistsOverlap(ctx, q)
	if err != nil {
		return err
	}
	if found {
		return ErrSchedulingConflict
	}
	return nil
}

// lock は追加時のロックを取得します。
// 全社員が対象のルールは排他ロック、社員単位のルールは共有ロックを取り、続けて社員行をロックします。
func (c *Checker) lock(ctx context.Context, rule OverlapRule, employeeID int64) error {
	if err := c.repo.LockSchedule(ctx, rule.Scope == ScopeStore); err != nil {
		return err
	}
	return c.repo.LockOwner(ctx, employeeID)
}
