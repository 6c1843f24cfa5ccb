package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/repo"
)

// scope resolves the tenant and the executor for a repository call.
func scope(ctx context.Context) (uuid.UUID, repo.Tx, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, nil, gerrors.Wrap(err, "resolve tenant")
	}
	tx, err := useTx(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return tenantID, tx, nil
}

func useTx(ctx context.Context) (repo.Tx, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, gerrors.Wrap(err, "resolve transaction")
	}
	return tx, nil
}
