package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
	"github.com/iota-uz/iota-freight/modules/freight/domain/events"
)

type ConfirmSpotResult struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	ReviewState load.ReviewState `json:"review_state"`
}

// ReviewService clears the manual-review flag raised by the upstream
// classifier and serves the review badge.
type ReviewService struct {
	engine
}

func NewReviewService(deps Dependencies) *ReviewService {
	return &ReviewService{engine: newEngine(deps)}
}

// ConfirmSpotLoad accepts the spot classification. The load type is left as is.
func (s *ReviewService) ConfirmSpotLoad(ctx context.Context, auth AuthContext, loadID uuid.UUID) (*ConfirmSpotResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionReview)
	if err != nil {
		return nil, err
	}

	var c changes
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		before, err := s.Loads.GetForUpdate(txCtx, loadID)
		if err != nil {
			if errors.Is(err, load.ErrNotFound) {
				return newServiceError(http.StatusNotFound, "FREIGHT_LOAD_NOT_FOUND", fmt.Sprintf("Load %s not found", loadID), err)
			}
			return err
		}
		after := before.ConfirmSpot(s.now())
		if err := s.Loads.Update(txCtx, after); err != nil {
			return err
		}
		if err := s.audit(txCtx, loadaudit.OperationConfirmSpot, auth.ActorID, before, after); err != nil {
			return err
		}
		return s.emit(txCtx, &c, events.TopicLoadSpotConfirmed, auth.OrganizationID, events.SpotConfirmedEvent{
			Meta: s.meta(txCtx, auth), LoadID: loadID,
		})
	})
	if err != nil {
		recordOperation("confirm_spot", "error")
		return nil, mapPgError(err)
	}

	recordOperation("confirm_spot", "ok")
	s.invalidateReviewBadge(ctx, auth.OrganizationID)
	logWithFields(ctx, logLevelInfo, "freight.load.spot_confirmed", withFields(fieldsFor(auth), logrus.Fields{
		"load_id": loadID.String(),
	}))
	s.publish(&c)
	return &ConfirmSpotResult{
		Success:     true,
		Message:     fmt.Sprintf("Load %s confirmed as spot", loadID),
		ReviewState: load.ReviewNormal,
	}, nil
}

// CountReviewNeeded serves the badge from cache when possible. Cache failures
// fall through to the database.
func (s *ReviewService) CountReviewNeeded(ctx context.Context, auth AuthContext) (int64, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionRead)
	if err != nil {
		return 0, err
	}
	if s.ReviewCache != nil {
		n, ok, err := s.ReviewCache.Get(ctx, auth.OrganizationID)
		if err != nil {
			logWithFields(ctx, logLevelWarn, "freight.review_badge.read_failed", withFields(fieldsFor(auth), logrus.Fields{"error": err.Error()}))
		}
		recordBadgeLookup(ok)
		if ok {
			return n, nil
		}
	}

	n, err := s.Loads.CountReviewNeeded(ctx)
	if err != nil {
		return 0, mapPgError(err)
	}
	if s.ReviewCache != nil {
		if err := s.ReviewCache.Set(ctx, auth.OrganizationID, n); err != nil {
			logWithFields(ctx, logLevelWarn, "freight.review_badge.write_failed", withFields(fieldsFor(auth), logrus.Fields{"error": err.Error()}))
		}
	}
	return n, nil
}
