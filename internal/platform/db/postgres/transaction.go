package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReadOnlyTransaction は読み取り専用トランザクションの内側で書き込みトランザクションを要求した場合に返却されます。
var ErrReadOnlyTransaction = errors.New("postgres: read-write transaction requested inside a read-only transaction")

// DefaultMaxAttempts は直列化失敗・デッドロック時に読み書きトランザクションを試行する既定の回数です。
const DefaultMaxAttempts = 3

type txContextKey struct{}

// txState はコンテキストに格納する実行中トランザクションです。
type txState struct {
	tx   pgx.Tx
	mode pgx.TxAccessMode
}

// txStarter は pgxpool.Pool と pgxmock のどちらでも満たせるトランザクション開始の抽象です。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は pgx を用いたトランザクション制御を提供します。
type TransactionManager struct {
	pool        txStarter
	maxAttempts int
}

// Option は TransactionManager の設定を変更します。
type Option func(*TransactionManager)

// WithMaxAttempts は読み書きトランザクションの最大試行回数を指定します。1 以下の場合は再試行しません。
func WithMaxAttempts(n int) Option {
	return func(m *TransactionManager) {
		if n < 1 {
			n = 1
		}
		m.maxAttempts = n
	}
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter, opts ...Option) *TransactionManager {
	if pool == nil {
		return nil
	}
	m := &TransactionManager{pool: pool, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithinReadOnly は読み取り専用トランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.ReadOnly, 1, fn)
}

// WithinReadWrite は読み書きトランザクションを開始し、fn を実行します。
// 直列化失敗またはデッドロックで中断された場合は、最大試行回数まで fn ごとやり直します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.ReadWrite, m.maxAttempts, fn)
}

func (m *TransactionManager) within(ctx context.Context, mode pgx.TxAccessMode, attempts int, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}

	if state, ok := stateFromContext(ctx); ok {
		if state.mode == pgx.ReadOnly && mode == pgx.ReadWrite {
			return ErrReadOnlyTransaction
		}
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := m.runOnce(ctx, mode, fn)
		if err == nil || attempt >= attempts || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
}

func (m *TransactionManager) runOnce(ctx context.Context, mode pgx.TxAccessMode, fn func(context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: mode})
	if err != nil {
		return WrapTransient(fmt.Errorf("postgres: begin tx: %w", err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, txState{tx: tx, mode: mode})); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return WrapTransient(fmt.Errorf("postgres: commit: %w", err))
	}

	committed = true
	return nil
}

// isRetryable は再実行で成功し得る中断かを判定します。
func isRetryable(err error) bool {
	code, _, ok := PgErrorCode(err)
	return ok && (code == serializationFailureCode || code == deadlockDetectedCode)
}

func stateFromContext(ctx context.Context) (txState, bool) {
	if ctx == nil {
		return txState{}, false
	}
	state, ok := ctx.Value(txContextKey{}).(txState)
	return state, ok
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	state, ok := stateFromContext(ctx)
	return state.tx, ok
}

// QueryerFromContext はコンテキスト内にトランザクションが存在すればそれを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
