package composables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-freight/pkg/configuration"
)

// rlsEnforced is swapped in tests so they do not need to load configuration.
var rlsEnforced = func() bool {
	return configuration.Use().RLSEnforce == "enforce"
}

func ApplyTenantRLS(ctx context.Context, tx pgx.Tx) error {
	if !rlsEnforced() {
		return nil
	}
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires tenant in context: %w", err)
	}
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String())
	if err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}
