package persistence

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
)

func heldLoadRow(id, tenantID uuid.UUID, heldAt time.Time) []any {
	actor := uuid.New()
	return []any{
		id, tenantID, "ORD-100", uuid.New(), "SPOT",
		pgtype.Text{String: " HCR-1 ", Valid: true}, pgtype.Text{String: "T-7", Valid: true}, true,
		true, pgtype.Text{String: "waiting on POD", Valid: true}, pgtype.Text{String: "MISSING_POD", Valid: true},
		pgtype.Timestamptz{Time: heldAt, Valid: true}, pgtype.UUID{Bytes: actor, Valid: true},
		false, pgtype.Text{}, pgtype.Timestamptz{}, pgtype.Float8{Float64: 412.5, Valid: true},
		heldAt, heldAt,
	}
}

func TestLoadRepository_GetForUpdate_LocksRowAndMaps(t *testing.T) {
	tenantID := uuid.New()
	loadID := uuid.New()
	now := time.Now().UTC()

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FROM freight_loads")
			require.True(t, strings.HasSuffix(strings.TrimSpace(sql), "FOR UPDATE"))
			require.Equal(t, tenantID, args[0])
			require.Equal(t, loadID, args[1])
			return rowOf(heldLoadRow(loadID, tenantID, now)...)
		},
	}

	l, err := NewLoadRepository().GetForUpdate(tenantCtx(tenantID, tx), loadID)
	require.NoError(t, err)
	require.Equal(t, loadID, l.ID())
	require.Equal(t, load.TypeSpot, l.Type())
	require.Equal(t, load.Route{HCR: " HCR-1 ", TripNumber: "T-7"}, l.Route())
	require.True(t, l.IsHeld())
	require.Equal(t, load.HoldReasonMissingPOD, l.HeldReasonCode())
	require.NotNil(t, l.HeldBy())
	require.NotNil(t, l.ContractMiles())
	require.InDelta(t, 412.5, *l.ContractMiles(), 0.001)
	require.Nil(t, l.PODUploadedAt())
	require.Equal(t, load.ReviewSpotFlagged, l.ReviewState())
}

func TestLoadRepository_GetByID_NotFound(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.NotContains(t, sql, "FOR UPDATE")
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	_, err := NewLoadRepository().GetByID(tenantCtx(uuid.New(), tx), uuid.New())
	require.ErrorIs(t, err, load.ErrNotFound)
}

func TestLoadRepository_GetByID_RequiresTenant(t *testing.T) {
	_, err := NewLoadRepository().GetByID(context.Background(), uuid.New())
	require.ErrorContains(t, err, "resolve tenant")
}

func TestLoadRepository_Update_WritesHoldFields(t *testing.T) {
	tenantID := uuid.New()
	actor := uuid.New()
	now := time.Now().UTC()
	l := load.Hydrate(load.Snapshot{ID: uuid.New(), OrganizationID: tenantID, LoadType: load.TypeSpot})
	held, err := l.Hold("", "no pod yet", actor, now)
	require.NoError(t, err)

	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "UPDATE freight_loads SET")
			require.Equal(t, tenantID, args[0])
			require.Equal(t, held.ID(), args[1])
			require.Equal(t, true, args[4])
			require.Equal(t, pgtype.Text{String: "no pod yet", Valid: true}, args[5])
			require.Equal(t, pgtype.Text{String: "MISSING_POD", Valid: true}, args[6])
			require.Equal(t, pgtype.UUID{Bytes: actor, Valid: true}, args[8])
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	require.NoError(t, NewLoadRepository().Update(tenantCtx(tenantID, tx), held))
}

func TestLoadRepository_Update_ClearsReasonCodeWhenReleased(t *testing.T) {
	tenantID := uuid.New()
	l := load.Hydrate(load.Snapshot{ID: uuid.New(), OrganizationID: tenantID, LoadType: load.TypeSpot})

	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Equal(t, false, args[4])
			require.Equal(t, pgtype.Text{}, args[6])
			require.Equal(t, pgtype.UUID{}, args[8])
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	err := NewLoadRepository().Update(tenantCtx(tenantID, tx), l)
	require.ErrorIs(t, err, load.ErrNotFound)
}

func TestLoadRepository_ListHeld_AppliesPaging(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now().UTC()

	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "is_held")
			require.Contains(t, sql, "LIMIT 10 OFFSET 20")
			require.Equal(t, []any{tenantID}, args)
			return &stubRows{data: [][]any{
				heldLoadRow(uuid.New(), tenantID, now),
				heldLoadRow(uuid.New(), tenantID, now.Add(-time.Hour)),
			}}, nil
		},
	}

	loads, err := NewLoadRepository().ListHeld(tenantCtx(tenantID, tx), &load.FindParams{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, loads, 2)
}

func TestLoadRepository_CountReviewNeeded(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "requires_manual_review")
			require.Equal(t, tenantID, args[0])
			return rowOf(int64(4))
		},
	}

	n, err := NewLoadRepository().CountReviewNeeded(tenantCtx(tenantID, tx))
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestLoadRepository_CountAndPromoteShareSpotPredicate(t *testing.T) {
	tenantID := uuid.New()
	route := load.Route{HCR: " HCR-9 ", TripNumber: "T-1"}
	predicate, _ := spotMatch(1, tenantID, route)
	shifted, _ := spotMatch(2, tenantID, route)
	promoted := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, predicate)
			require.Equal(t, []any{tenantID, " HCR-9 ", "T-1", "SPOT"}, args)
			return rowOf(int64(3))
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "UPDATE freight_loads")
			require.Contains(t, sql, "RETURNING id")
			require.Contains(t, sql, shifted)
			require.Equal(t, []any{"CONTRACT", tenantID, " HCR-9 ", "T-1", "SPOT"}, args)
			data := make([][]any, 0, len(promoted))
			for _, id := range promoted {
				data = append(data, []any{id})
			}
			return &stubRows{data: data}, nil
		},
	}

	repo := NewLoadRepository()
	ctx := tenantCtx(tenantID, tx)
	n, err := repo.CountMatchingSpot(ctx, route)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	ids, err := repo.PromoteMatchingSpot(ctx, route)
	require.NoError(t, err)
	require.Equal(t, promoted, ids)
}

func TestSpotMatch_Placeholders(t *testing.T) {
	where, args := spotMatch(3, uuid.Nil, load.Route{HCR: "A", TripNumber: "B"})
	require.Equal(t, "organization_id = $3 AND parsed_hcr = $4 AND parsed_trip_number = $5 AND load_type = $6", where)
	require.Len(t, args, 4)
}

func TestLoadRepository_PromoteMatchingSpot_UsesStoredRoute(t *testing.T) {
	tenantID := uuid.New()
	loadID := uuid.New()
	now := time.Now().UTC()
	var promoteArgs []any

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return rowOf(heldLoadRow(loadID, tenantID, now)...)
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "parsed_hcr = $3 AND parsed_trip_number = $4")
			require.NotContains(t, sql, "btrim")
			promoteArgs = args
			return &stubRows{data: [][]any{{loadID}}}, nil
		},
	}

	repo := NewLoadRepository()
	ctx := tenantCtx(tenantID, tx)
	source, err := repo.GetForUpdate(ctx, loadID)
	require.NoError(t, err)

	ids, err := repo.PromoteMatchingSpot(ctx, source.Route())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{loadID}, ids)
	require.Equal(t, []any{"CONTRACT", tenantID, " HCR-1 ", "T-7", "SPOT"}, promoteArgs)
}
