package services

import (
	"context"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
)

type HeldFilter struct {
	Limit  int
	Offset int
	// Query fuzzy-matches the order number or the hold note.
	Query string
}

type HeldPage struct {
	Loads []load.Load
	Total int64
}

// LoadService serves read-only load listings.
type LoadService struct {
	engine
}

func NewLoadService(deps Dependencies) *LoadService {
	return &LoadService{engine: newEngine(deps)}
}

func (s *LoadService) ListHeld(ctx context.Context, auth AuthContext, f HeldFilter) (*HeldPage, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionRead)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(f.Query)
	if query == "" {
		loads, err := s.Loads.ListHeld(ctx, &load.FindParams{Limit: f.Limit, Offset: f.Offset})
		if err != nil {
			return nil, mapPgError(err)
		}
		total, err := s.Loads.CountHeld(ctx)
		if err != nil {
			return nil, mapPgError(err)
		}
		return &HeldPage{Loads: loads, Total: total}, nil
	}

	all, err := s.Loads.ListHeld(ctx, nil)
	if err != nil {
		return nil, mapPgError(err)
	}
	matched := make([]load.Load, 0, len(all))
	for _, l := range all {
		if fuzzy.MatchNormalizedFold(query, l.OrderNumber()) || fuzzy.MatchNormalizedFold(query, l.HeldReason()) {
			matched = append(matched, l)
		}
	}
	return &HeldPage{Loads: page(matched, f.Limit, f.Offset), Total: int64(len(matched))}, nil
}

func page(loads []load.Load, limit, offset int) []load.Load {
	if offset > 0 {
		if offset >= len(loads) {
			return []load.Load{}
		}
		loads = loads[offset:]
	}
	if limit > 0 && limit < len(loads) {
		loads = loads[:limit]
	}
	return loads
}
