package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/contractlane"
	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/customer"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/membership"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/payable"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/poddocument"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/settlement"
	"github.com/iota-uz/iota-freight/modules/freight/domain/events"
	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/eventbus"
	"github.com/iota-uz/iota-freight/pkg/outbox"
)

const (
	logLevelInfo = logrus.InfoLevel
	logLevelWarn = logrus.WarnLevel
)

// ReviewCountCache caches the review badge per organization.
type ReviewCountCache interface {
	Get(ctx context.Context, organizationID uuid.UUID) (int64, bool, error)
	Set(ctx context.Context, organizationID uuid.UUID, count int64) error
	Invalidate(ctx context.Context, organizationID uuid.UUID) error
}

type Options struct {
	// OutboxTable is nil when the outbox is disabled.
	OutboxTable     pgx.Identifier
	AuditEnabled    bool
	LaneTermMonths  int
	DefaultCurrency string
	DefaultRateType string
	PODMaxBytes     int64
}

func (o Options) normalized() Options {
	if o.LaneTermMonths <= 0 {
		o.LaneTermMonths = 12
	}
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = contractlane.DefaultCurrency
	}
	if o.DefaultRateType == "" {
		o.DefaultRateType = contractlane.DefaultRateType
	}
	return o
}

type Dependencies struct {
	Loads       load.Repository
	Payables    payable.Repository
	Settlements settlement.Repository
	Lanes       contractlane.Repository
	Customers   customer.Repository
	Memberships membership.Repository
	Audit       loadaudit.Repository
	Documents   poddocument.Repository
	Outbox      outbox.Publisher
	EventBus    eventbus.EventBus
	ReviewCache ReviewCountCache
	Options     Options
}

type txRunner func(ctx context.Context, fn func(context.Context) error) error

// engine carries what every freight service shares.
type engine struct {
	Dependencies
	runInTx txRunner
	now     func() time.Time
}

func newEngine(deps Dependencies) engine {
	deps.Options = deps.Options.normalized()
	return engine{
		Dependencies: deps,
		runInTx:      composables.InTenantTx,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// changes accumulates the events of one transaction; they are handed to the
// event bus only after commit.
type changes struct {
	events []any
}

func (e *engine) audit(ctx context.Context, op loadaudit.Operation, actor uuid.UUID, before, after load.Load) error {
	if !e.Options.AuditEnabled || e.Audit == nil {
		return nil
	}
	entry, err := loadaudit.NewEntry(op, actor, composables.UseRequestID(ctx), before.Snapshot(), after.Snapshot())
	if err != nil {
		return err
	}
	if entry.Empty() {
		return nil
	}
	_, err = e.Audit.Create(ctx, entry)
	return err
}

// emit enqueues the event into the outbox of the current transaction and
// remembers it for in-process delivery.
func (e *engine) emit(ctx context.Context, c *changes, topic string, organizationID uuid.UUID, payload any) error {
	if len(e.Options.OutboxTable) > 0 && e.Outbox != nil {
		msg, err := outbox.NewMessage(organizationID, topic, payload)
		if err != nil {
			return err
		}
		tx, err := composables.UseTx(ctx)
		if err != nil {
			return err
		}
		if _, err := e.Outbox.Enqueue(ctx, tx, e.Options.OutboxTable, msg); err != nil {
			return err
		}
	}
	c.events = append(c.events, payload)
	return nil
}

func (e *engine) publish(c *changes) {
	if e.EventBus == nil || c == nil {
		return
	}
	for _, evt := range c.events {
		e.EventBus.Publish(evt)
	}
}

func (e *engine) meta(ctx context.Context, auth AuthContext) events.Meta {
	return events.NewMeta(auth.OrganizationID, auth.ActorID, composables.UseRequestID(ctx), e.now())
}

func (e *engine) invalidateReviewBadge(ctx context.Context, organizationID uuid.UUID) {
	if e.ReviewCache == nil {
		return
	}
	if err := e.ReviewCache.Invalidate(ctx, organizationID); err != nil {
		logWithFields(ctx, logLevelWarn, "freight.review_badge.invalidate_failed", logrus.Fields{
			"organization_id": organizationID.String(),
			"error":           err.Error(),
		})
	}
}

func fieldsFor(auth AuthContext) logrus.Fields {
	return logrus.Fields{
		"organization_id": auth.OrganizationID.String(),
		"actor_id":        auth.ActorID.String(),
	}
}
