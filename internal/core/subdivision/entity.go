package subdivision

import "time"

// Subdivision は組織の部署エンティティです。LeaderID は外部キーを持たない任意参照です。
type Subdivision struct {
	ID        int64
	Name      string
	LeaderID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection は部署と所属社員 ID の読み取りモデルです。EmployeeIDs は昇順です。
type Projection struct {
	ID          int64
	Name        string
	LeaderID    *int64
	EmployeeIDs []int64
}
