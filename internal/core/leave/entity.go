package leave

import "time"

// Kind は期間の種別を表します。
type Kind string

const (
	KindVacation Kind = "vacation"
	KindBusiness Kind = "business"
)

// Valid は Kind が許可された値かを返します。
func (k Kind) Valid() bool {
	return k == KindVacation || k == KindBusiness
}

// Interval は社員の休暇または出張の期間です。StartDate / EndDate は両端を含む暦日 (UTC 0 時) です。
type Interval struct {
	ID         int64
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Kind       Kind
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
