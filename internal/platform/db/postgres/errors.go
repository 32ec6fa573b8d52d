package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/orgrecords/internal/core/outcome"
)

// SQLSTATE コード。
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
	CheckViolationCode      = "23514"

	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	lockNotAvailableCode     = "55P03"
	queryCanceledCode        = "57014"
	adminShutdownCode        = "57P01"
	cannotConnectNowCode     = "57P03"
	connectionExceptionClass = "08"
)

// PgErrorCode は err に含まれる PostgreSQL エラーのコードと制約名を返します。
func PgErrorCode(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", "", false
	}
	return pgErr.Code, pgErr.ConstraintName, true
}

// IsTransient は再試行で解消し得る一時的な障害かを判定します。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	code, _, ok := PgErrorCode(err)
	if !ok {
		return false
	}
	switch code {
	case serializationFailureCode, deadlockDetectedCode, lockNotAvailableCode,
		queryCanceledCode, adminShutdownCode, cannotConnectNowCode:
		return true
	}
	return strings.HasPrefix(code, connectionExceptionClass)
}

// WrapTransient は一時的な障害を outcome.ErrUnavailable でラップします。それ以外はそのまま返します。
func WrapTransient(err error) error {
	if IsTransient(err) {
		return outcome.Unavailable(err)
	}
	return err
}
