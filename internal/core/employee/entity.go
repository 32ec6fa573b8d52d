package employee

import "time"

// Flag は "yes" / "no" の二値属性を表します。
type Flag string

const (
	FlagYes Flag = "yes"
	FlagNo  Flag = "no"
)

// Valid は Flag が許可された値かを返します。
func (f Flag) Valid() bool {
	return f == FlagYes || f == FlagNo
}

// Employee は社員エンティティです。
type Employee struct {
	ID           int64
	LastName     string
	FirstName    string
	Patronymic   *string
	Email        *string
	Login        *string
	PasswordHash string
	IsSupervisor Flag
	IsVacation   Flag
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
