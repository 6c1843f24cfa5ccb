package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/contractlane"
	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/customer"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/membership"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/payable"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/poddocument"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/settlement"
	"github.com/iota-uz/iota-freight/pkg/constants"
	"github.com/iota-uz/iota-freight/pkg/eventbus"
	"github.com/iota-uz/iota-freight/pkg/outbox"
	"github.com/iota-uz/iota-freight/pkg/repo"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	org         uuid.UUID
	actor       uuid.UUID
	auth        AuthContext
	loads       *fakeLoads
	payables    *fakePayables
	settlements *fakeSettlements
	lanes       *fakeLanes
	customers   *fakeCustomers
	members     *fakeMembers
	audit       *fakeAudit
	documents   *fakeDocuments
	outbox      *fakeOutbox
	cache       *fakeCache
	bus         eventbus.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	allowAll(t)
	org, actor := uuid.New(), uuid.New()
	f := &fixture{
		org:         org,
		actor:       actor,
		auth:        AuthContext{OrganizationID: org, ActorID: actor},
		loads:       &fakeLoads{items: map[uuid.UUID]load.Load{}},
		payables:    &fakePayables{items: map[uuid.UUID][]payable.Payable{}},
		settlements: &fakeSettlements{items: map[uuid.UUID]settlement.Settlement{}},
		lanes:       &fakeLanes{},
		customers:   &fakeCustomers{items: map[uuid.UUID]customer.Customer{}},
		members:     &fakeMembers{items: map[[2]uuid.UUID]membership.Membership{}},
		audit:       &fakeAudit{},
		documents:   &fakeDocuments{},
		outbox:      &fakeOutbox{},
		cache:       &fakeCache{items: map[uuid.UUID]int64{}},
		bus:         eventbus.NewEventPublisher(logrus.New()),
	}
	f.members.items[[2]uuid.UUID{org, actor}] = membership.Membership{OrganizationID: org, UserID: actor, Role: "dispatcher"}
	return f
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Loads:       f.loads,
		Payables:    f.payables,
		Settlements: f.settlements,
		Lanes:       f.lanes,
		Customers:   f.customers,
		Memberships: f.members,
		Audit:       f.audit,
		Documents:   f.documents,
		Outbox:      f.outbox,
		EventBus:    f.bus,
		ReviewCache: f.cache,
		Options: Options{
			OutboxTable:  pgx.Identifier{"public", "freight_outbox"},
			AuditEnabled: true,
			PODMaxBytes:  1 << 20,
		},
	}
}

func (f *fixture) wire(e *engine) {
	e.runInTx = passthroughTx
	e.now = func() time.Time { return fixedNow }
}

func (f *fixture) addLoad(s load.Snapshot) load.Load {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.OrganizationID = f.org
	if s.LoadType == "" {
		s.LoadType = load.TypeSpot
	}
	if s.OrderNumber == "" {
		s.OrderNumber = "ORD-" + s.ID.String()[:8]
	}
	l := load.Hydrate(s)
	f.loads.items[l.ID()] = l
	return l
}

func (f *fixture) addPayable(loadID uuid.UUID, settlementID *uuid.UUID, amount string) payable.Payable {
	p := payable.Payable{
		ID:             uuid.New(),
		OrganizationID: f.org,
		LoadID:         loadID,
		SettlementID:   settlementID,
		PayeeType:      payable.PayeeDriver,
		Amount:         mustDecimal(amount),
		Currency:       "USD",
	}
	f.payables.items[loadID] = append(f.payables.items[loadID], p)
	return p
}

func (f *fixture) addSettlement(number string, status settlement.Status) uuid.UUID {
	id := uuid.New()
	f.settlements.items[id] = settlement.Settlement{ID: id, OrganizationID: f.org, StatementNumber: number, Status: status}
	return id
}

func allowAll(t *testing.T) {
	t.Helper()
	authorizeFreightFn = func(context.Context, membership.Membership, string, string) error { return nil }
	t.Cleanup(func() { authorizeFreightFn = defaultAuthorizeFreight })
}

// passthroughTx runs fn inline with a no-op executor bound to ctx.
func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, constants.TxKey, noopTx{}))
}

type noopTx struct{}

func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

type fakeLoads struct {
	items    map[uuid.UUID]load.Load
	getErr   error
	updates  int
	promoted int
}

func (r *fakeLoads) GetByID(ctx context.Context, id uuid.UUID) (load.Load, error) {
	return r.GetForUpdate(ctx, id)
}

func (r *fakeLoads) GetForUpdate(_ context.Context, id uuid.UUID) (load.Load, error) {
	if r.getErr != nil {
		return load.Load{}, r.getErr
	}
	l, ok := r.items[id]
	if !ok {
		return load.Load{}, load.ErrNotFound
	}
	return l, nil
}

func (r *fakeLoads) Update(_ context.Context, l load.Load) error {
	if _, ok := r.items[l.ID()]; !ok {
		return load.ErrNotFound
	}
	r.items[l.ID()] = l
	r.updates++
	return nil
}

func (r *fakeLoads) sorted(keep func(load.Load) bool) []load.Load {
	var out []load.Load
	for _, l := range r.items {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber() < out[j].OrderNumber() })
	return out
}

func (r *fakeLoads) ListHeld(_ context.Context, params *load.FindParams) ([]load.Load, error) {
	held := r.sorted(load.Load.IsHeld)
	if params == nil {
		return held, nil
	}
	return page(held, params.Limit, params.Offset), nil
}

func (r *fakeLoads) CountHeld(_ context.Context) (int64, error) {
	return int64(len(r.sorted(load.Load.IsHeld))), nil
}

func (r *fakeLoads) CountReviewNeeded(_ context.Context) (int64, error) {
	return int64(len(r.sorted(load.Load.RequiresManualReview))), nil
}

func (r *fakeLoads) matches(route load.Route) func(load.Load) bool {
	return func(l load.Load) bool {
		return l.Type() == load.TypeSpot && l.Route() == route
	}
}

func (r *fakeLoads) CountMatchingSpot(_ context.Context, route load.Route) (int64, error) {
	return int64(len(r.sorted(r.matches(route)))), nil
}

func (r *fakeLoads) PromoteMatchingSpot(_ context.Context, route load.Route) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for _, l := range r.sorted(r.matches(route)) {
		r.items[l.ID()] = l.PromoteToContract(fixedNow)
		ids = append(ids, l.ID())
	}
	r.promoted += len(ids)
	return ids, nil
}

type fakePayables struct {
	items map[uuid.UUID][]payable.Payable
}

func (r *fakePayables) ListByLoad(_ context.Context, loadID uuid.UUID) ([]payable.Payable, error) {
	return append([]payable.Payable(nil), r.items[loadID]...), nil
}

func (r *fakePayables) DetachFromSettlements(_ context.Context, loadID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for i, p := range r.items[loadID] {
		if p.SettlementID != nil {
			r.items[loadID][i].SettlementID = nil
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakePayables) assigned(loadID uuid.UUID) int {
	n := 0
	for _, p := range r.items[loadID] {
		if p.IsAssigned() {
			n++
		}
	}
	return n
}

type fakeSettlements struct {
	items map[uuid.UUID]settlement.Settlement
}

func (r *fakeSettlements) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]settlement.Settlement, error) {
	out := map[uuid.UUID]settlement.Settlement{}
	for _, id := range ids {
		if s, ok := r.items[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeLanes struct {
	items     []contractlane.ContractLane
	createErr error
}

func (r *fakeLanes) FindActive(_ context.Context, hcr, tripNumber string) (contractlane.ContractLane, error) {
	for _, l := range r.items {
		if l.HCR() == hcr && l.TripNumber() == tripNumber && !l.IsDeleted() {
			return l, nil
		}
	}
	return contractlane.ContractLane{}, contractlane.ErrNotFound
}

func (r *fakeLanes) Create(_ context.Context, lane contractlane.ContractLane) (contractlane.ContractLane, error) {
	if r.createErr != nil {
		return contractlane.ContractLane{}, r.createErr
	}
	created := contractlane.Hydrate(contractlane.HydrateParams{
		ID:                  uuid.New(),
		OrganizationID:      lane.OrganizationID(),
		HCR:                 lane.HCR(),
		TripNumber:          lane.TripNumber(),
		Name:                lane.Name(),
		CustomerID:          lane.CustomerID(),
		ContractPeriodStart: lane.ContractPeriodStart(),
		ContractPeriodEnd:   lane.ContractPeriodEnd(),
		RateType:            lane.RateType(),
		Rate:                lane.Rate(),
		Currency:            lane.Currency(),
		Miles:               lane.Miles(),
		Stops:               lane.Stops(),
		IsActive:            lane.IsActive(),
		CreatedBy:           lane.CreatedBy(),
		CreatedAt:           fixedNow,
		UpdatedAt:           fixedNow,
	})
	r.items = append(r.items, created)
	return created, nil
}

type fakeCustomers struct {
	items map[uuid.UUID]customer.Customer
}

func (r *fakeCustomers) GetByID(_ context.Context, id uuid.UUID) (customer.Customer, error) {
	c, ok := r.items[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

type fakeMembers struct {
	items map[[2]uuid.UUID]membership.Membership
	calls int
}

func (r *fakeMembers) Get(_ context.Context, organizationID, userID uuid.UUID) (membership.Membership, error) {
	r.calls++
	m, ok := r.items[[2]uuid.UUID{organizationID, userID}]
	if !ok {
		return membership.Membership{}, membership.ErrNotFound
	}
	return m, nil
}

type fakeAudit struct {
	entries []loadaudit.Entry
}

func (r *fakeAudit) Create(_ context.Context, e loadaudit.Entry) (loadaudit.Entry, error) {
	e.ID = uuid.New()
	r.entries = append(r.entries, e)
	return e, nil
}

type fakeDocuments struct {
	items []poddocument.Document
}

func (r *fakeDocuments) Create(_ context.Context, doc poddocument.Document) (poddocument.Document, error) {
	doc.ID = uuid.New()
	doc.CreatedAt = fixedNow
	r.items = append(r.items, doc)
	return doc, nil
}

type fakeOutbox struct {
	messages []outbox.Message
}

func (p *fakeOutbox) Enqueue(_ context.Context, tx repo.Tx, table pgx.Identifier, msg outbox.Message) (int64, error) {
	if tx == nil {
		return 0, errors.New("missing tx")
	}
	p.messages = append(p.messages, msg)
	return int64(len(p.messages)), nil
}

func (p *fakeOutbox) topics() []string {
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Topic)
	}
	return out
}

type fakeCache struct {
	mu          sync.Mutex
	items       map[uuid.UUID]int64
	invalidated int
}

func (c *fakeCache) Get(_ context.Context, org uuid.UUID) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.items[org]
	return n, ok, nil
}

func (c *fakeCache) Set(_ context.Context, org uuid.UUID, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[org] = n
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, org uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, org)
	c.invalidated++
	return nil
}
