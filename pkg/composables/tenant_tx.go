package composables

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-freight/pkg/constants"
)

type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InTenantTx runs fn with the tenant's RLS settings applied. It joins the
// transaction already bound to ctx, otherwise it opens one on the pool.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok && existing != nil {
		if err := ApplyTenantRLS(ctx, existing); err != nil {
			return err
		}
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}
	return inNewTx(ctx, pool, fn)
}

func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

// inNewTx commits when fn succeeds and rolls back on error or panic.
func inNewTx(ctx context.Context, db txStarter, fn func(context.Context) error) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		txCtx := WithTx(ctx, tx)
		if err := ApplyTenantRLS(txCtx, tx); err != nil {
			return err
		}
		return fn(txCtx)
	})
}
