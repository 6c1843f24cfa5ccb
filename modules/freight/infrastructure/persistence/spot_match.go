package persistence

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
)

// spotMatch renders the predicate shared by the match preview and the bulk
// promotion, so both always agree on which loads belong to a lane.
// Placeholders start at $first.
func spotMatch(first int, tenantID uuid.UUID, route load.Route) (string, []any) {
	clauses := []string{
		fmt.Sprintf("organization_id = $%d", first),
		fmt.Sprintf("parsed_hcr = $%d", first+1),
		fmt.Sprintf("parsed_trip_number = $%d", first+2),
		fmt.Sprintf("load_type = $%d", first+3),
	}
	args := []any{
		tenantID,
		route.HCR,
		route.TripNumber,
		string(load.TypeSpot),
	}
	return strings.Join(clauses, " AND "), args
}
