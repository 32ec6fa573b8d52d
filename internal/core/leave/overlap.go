package leave

import (
	"fmt"
	"strings"
	"time"
)

// Scope は重複判定の対象範囲です。
type Scope string

const (
	// ScopeEmployee は同一社員の期間だけを対象にします。
	ScopeEmployee Scope = "employee"
	// ScopeStore は全社員の期間を対象にします。
	ScopeStore Scope = "store"
)

// Bounds は期間の端点の扱いです。
type Bounds string

const (
	// BoundsInclusive は端点が接するだけでも重複とみなします (existing.start <= end AND existing.end >= start)。
	BoundsInclusive Bounds = "inclusive"
	// BoundsStrict は端点の接触を重複とみなしません (existing.start < end AND existing.end > start)。
	BoundsStrict Bounds = "strict"
)

// Overlaps は既存期間 [existingStart, existingEnd] が候補 [start, end] と重なるかを返します。
func (b Bounds) Overlaps(existingStart, existingEnd, start, end time.Time) bool {
	if b == BoundsStrict {
		return existingStart.Before(end) && existingEnd.After(start)
	}
	return !existingStart.After(end) && !existingEnd.Before(start)
}

// OverlapRule は対象範囲と端点の扱いの組です。
type OverlapRule struct {
	Scope  Scope
	Bounds Bounds
}

var (
	// CreateRule は期間追加時の既定ルールです。
	CreateRule = OverlapRule{Scope: ScopeEmployee, Bounds: BoundsInclusive}
	// UpdateRule は期間更新時の既定ルールです。
	UpdateRule = OverlapRule{Scope: ScopeStore, Bounds: BoundsStrict}
)

// ParseOverlapRule は設定値からルールを組み立てます。空文字は fallback の値を使います。
func ParseOverlapRule(scope, bounds string, fallback OverlapRule) (OverlapRule, error) {
	rule := fallback
	if s := strings.ToLower(strings.TrimSpace(scope)); s != "" {
		rule.Scope = Scope(s)
	}
	if b := strings.ToLower(strings.TrimSpace(bounds)); b != "" {
		rule.Bounds = Bounds(b)
	}
	if err := rule.Validate(); err != nil {
		return OverlapRule{}, err
	}
	return rule, nil
}

// Validate はルールの値を検証します。
func (r OverlapRule) Validate() error {
	switch r.Scope {
	case ScopeEmployee, ScopeStore:
	default:
		return fmt.Errorf("scope %q: %w", r.Scope, ErrInvalidOverlapRule)
	}
	switch r.Bounds {
	case BoundsInclusive, BoundsStrict:
	default:
		return fmt.Errorf("bounds %q: %w", r.Bounds, ErrInvalidOverlapRule)
	}
	return nil
}

func (r OverlapRule) String() string {
	return string(r.Scope) + "/" + string(r.Bounds)
}

// query は候補期間に対する重複検索条件を組み立てます。
func (r OverlapRule) query(employeeID int64, excludeID *int64, start, end time.Time) OverlapQuery {
	q := OverlapQuery{
		ExcludeID: excludeID,
		Start:     start,
		End:       end,
		Bounds:    r.Bounds,
	}
	if r.Scope == ScopeEmployee {
		id := employeeID
		q.EmployeeID = &id
	}
	return q
}

// OverlapQuery はストレージに渡す重複検索条件です。EmployeeID が nil の場合は全社員が対象です。
type OverlapQuery struct {
	EmployeeID *int64
	ExcludeID  *int64
	Start      time.Time
	End        time.Time
	Bounds     Bounds
}

// Matches は既存期間が条件に該当するかを返します。
func (q OverlapQuery) Matches(existing *Interval) bool {
	if existing == nil {
		return false
	}
	if q.EmployeeID != nil && existing.EmployeeID != *q.EmployeeID {
		return false
	}
	if q.ExcludeID != nil && existing.ID == *q.ExcludeID {
		return false
	}
	return q.Bounds.Overlaps(existing.StartDate, existing.EndDate, q.Start, q.End)
}
