package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

type txKey struct{}

// Executor возвращает транзакцию из контекста или само подключение.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// Transactor кладёт *sqlx.Tx в контекст, репозитории берут его через Executor.
type Transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	return WithTransaction(ctx, t.db, func(tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetByID - универсальная функция для получения строки по ID.
// Запрос пишется с "?" и переводится в плейсхолдеры драйвера.
func GetByID[T any](ctx context.Context, q sqlx.ExtContext, table string, id interface{}, notFoundErr error) (*T, error) {
	var row T
	query := q.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table))

	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, fmt.Errorf("get by id from %s: %w", table, err)
	}

	return &row, nil
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок.
// Сбои begin, rollback и commit возвращаются как PersistenceUnavailable,
// доменные ошибки из fn не перекодируются.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return apperror.Persistence(fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Persistence(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}
