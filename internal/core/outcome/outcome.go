// Package outcome は全ユースケースで共通の失敗種別を定義します。
//
// 各集約パッケージの番兵エラーはいずれかの種別をラップしており、
// 呼び出し側は errors.Is で種別を判定できます。
package outcome

import "errors"

var (
	// ErrNotFound は参照先のレコードが存在しない場合の種別です。
	ErrNotFound = errors.New("not found")
	// ErrConflict は一意制約に違反する場合の種別です。
	ErrConflict = errors.New("conflict")
	// ErrSchedulingConflict は休暇・出張期間が既存期間と重なる場合の種別です。
	ErrSchedulingConflict = errors.New("scheduling conflict")
	// ErrUnavailable はストレージが一時的に利用できない場合の種別です。
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidArgument は入力値が不正な場合の種別です。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated は資格情報が一致しない場合の種別です。
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Kind は err が属する種別を返します。該当しない場合は nil を返します。
func Kind(err error) error {
	for _, kind := range []error{ErrSchedulingConflict, ErrNotFound, ErrConflict, ErrUnavailable, ErrInvalidArgument, ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Label はメトリクスやログ向けに種別を短い文字列で返します。
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	switch Kind(err) {
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrSchedulingConflict:
		return "scheduling_conflict"
	case ErrUnavailable:
		return "unavailable"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Unavailable は err を ErrUnavailable 種別でラップします。
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return errors.Join(ErrUnavailable, err)
}
