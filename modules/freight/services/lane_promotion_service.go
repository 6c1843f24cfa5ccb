package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/contractlane"
	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/customer"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
	"github.com/iota-uz/iota-freight/modules/freight/domain/events"
)

const missingRouteMessage = "Cannot convert: Load missing HCR or Trip information"

type ConvertToContractInput struct {
	ContractName string
	RateType     string
	Rate         *decimal.Decimal
	// ExpectedMatches pins the count the caller previewed with
	// CountMatchingSpotLoads; nil skips the check.
	ExpectedMatches *int64
}

type ConvertResult struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	LoadsConverted int       `json:"loads_converted"`
	LaneID         uuid.UUID `json:"lane_id"`
	LaneCreated    bool      `json:"lane_created"`
}

// LanePromotionService turns a recurring spot route into a contract lane and
// reclassifies every spot load on that route.
type LanePromotionService struct {
	engine
}

func NewLanePromotionService(deps Dependencies) *LanePromotionService {
	return &LanePromotionService{engine: newEngine(deps)}
}

func (s *LanePromotionService) ConvertToContract(ctx context.Context, auth AuthContext, loadID uuid.UUID, in ConvertToContractInput) (*ConvertResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LanesAuthzObject, actionConvert)
	if err != nil {
		return nil, err
	}

	var (
		result *ConvertResult
		c      changes
	)
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		source, err := s.Loads.GetForUpdate(txCtx, loadID)
		if err != nil {
			if errors.Is(err, load.ErrNotFound) {
				return newServiceError(http.StatusNotFound, "FREIGHT_LOAD_NOT_FOUND", fmt.Sprintf("Load %s not found", loadID), err)
			}
			return err
		}
		route := source.Route()
		if !route.Complete() {
			return newServiceError(http.StatusUnprocessableEntity, "FREIGHT_LOAD_MISSING_ROUTE", missingRouteMessage, nil)
		}
		cust, err := s.Customers.GetByID(txCtx, source.CustomerID())
		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return newServiceError(http.StatusNotFound, "FREIGHT_CUSTOMER_NOT_FOUND",
					fmt.Sprintf("Customer %s not found", source.CustomerID()), err)
			}
			return err
		}

		if in.ExpectedMatches != nil {
			current, err := s.Loads.CountMatchingSpot(txCtx, route)
			if err != nil {
				return err
			}
			if current != *in.ExpectedMatches {
				return newServiceError(http.StatusConflict, "FREIGHT_PROMOTION_COUNT_CHANGED",
					fmt.Sprintf("Expected %d matching spot loads, found %d", *in.ExpectedMatches, current), nil)
			}
		}

		lane, created, err := s.resolveLane(txCtx, auth, source, cust, in)
		if err != nil {
			return err
		}
		converted, err := s.Loads.PromoteMatchingSpot(txCtx, route)
		if err != nil {
			return err
		}

		if source.Type() == load.TypeSpot {
			if err := s.audit(txCtx, loadaudit.OperationConvertToLane, auth.ActorID, source, source.PromoteToContract(s.now())); err != nil {
				return err
			}
		}
		if err := s.emit(txCtx, &c, events.TopicLanePromoted, auth.OrganizationID, events.LanePromotedEvent{
			Meta:           s.meta(txCtx, auth),
			LaneID:         lane.ID(),
			LaneName:       lane.Name(),
			LaneCreated:    created,
			HCR:            route.HCR,
			TripNumber:     route.TripNumber,
			SourceLoadID:   loadID,
			ConvertedLoads: converted,
		}); err != nil {
			return err
		}

		result = &ConvertResult{
			Success:        true,
			Message:        promotionMessage(lane.Name(), created, len(converted)),
			LoadsConverted: len(converted),
			LaneID:         lane.ID(),
			LaneCreated:    created,
		}
		return nil
	})
	if err != nil {
		recordOperation("convert_to_contract", "error")
		logWithFields(ctx, logLevelWarn, "freight.lane.promotion_failed", withFields(fieldsFor(auth), logrus.Fields{
			"load_id": loadID.String(),
			"error":   err.Error(),
		}))
		return nil, mapPgError(err)
	}

	recordOperation("convert_to_contract", "ok")
	engineLoadsPromoted.Add(float64(result.LoadsConverted))
	s.invalidateReviewBadge(ctx, auth.OrganizationID)
	logWithFields(ctx, logLevelInfo, "freight.lane.promoted", withFields(fieldsFor(auth), logrus.Fields{
		"load_id":         loadID.String(),
		"lane_id":         result.LaneID.String(),
		"lane_created":    result.LaneCreated,
		"loads_converted": result.LoadsConverted,
	}))
	s.publish(&c)
	return result, nil
}

// CountMatchingSpotLoads previews how many loads ConvertToContract would
// reclassify for the route.
func (s *LanePromotionService) CountMatchingSpotLoads(ctx context.Context, auth AuthContext, hcr, tripNumber string) (int64, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LanesAuthzObject, actionRead)
	if err != nil {
		return 0, err
	}
	route := load.Route{HCR: hcr, TripNumber: tripNumber}
	if !route.Complete() {
		return 0, newServiceError(http.StatusBadRequest, "FREIGHT_INVALID_QUERY", "hcr and trip are required", nil)
	}
	n, err := s.Loads.CountMatchingSpot(ctx, route)
	if err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}

func (s *LanePromotionService) resolveLane(ctx context.Context, auth AuthContext, source load.Load, cust customer.Customer, in ConvertToContractInput) (contractlane.ContractLane, bool, error) {
	route := source.Route()
	existing, err := s.Lanes.FindActive(ctx, route.HCR, route.TripNumber)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, contractlane.ErrNotFound) {
		return contractlane.ContractLane{}, false, err
	}

	name := strings.TrimSpace(in.ContractName)
	if name == "" {
		name = contractlane.DefaultName(cust.Name, route.TripNumber)
	}
	rateType := strings.TrimSpace(in.RateType)
	if rateType == "" {
		rateType = s.Options.DefaultRateType
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	lane := contractlane.New(auth.OrganizationID, route.HCR, route.TripNumber, contractlane.Terms{
		Name:        name,
		CustomerID:  cust.ID,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, s.Options.LaneTermMonths, 0),
		RateType:    rateType,
		Rate:        in.Rate,
		Currency:    s.Options.DefaultCurrency,
		Miles:       source.ContractMiles(),
	}, auth.ActorID)

	created, err := s.Lanes.Create(ctx, lane)
	if err != nil {
		return contractlane.ContractLane{}, false, err
	}
	return created, true, nil
}

func promotionMessage(laneName string, created bool, converted int) string {
	if created {
		return fmt.Sprintf("Created contract lane %q and converted %s", laneName, pluralize(converted, "load"))
	}
	return fmt.Sprintf("Converted %s to existing contract lane %q", pluralize(converted, "load"), laneName)
}
