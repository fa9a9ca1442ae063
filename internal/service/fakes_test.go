package service

import (
	"context"
	"io"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/admission"
	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/lock"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/plan"
	"github.com/DeeipChheda/warmup-master-main/internal/provider"
	"github.com/DeeipChheda/warmup-master-main/internal/queue"
	"github.com/DeeipChheda/warmup-master-main/internal/ratelimit"
	"github.com/DeeipChheda/warmup-master-main/internal/repository"
	"github.com/DeeipChheda/warmup-master-main/internal/warmup"
	"go.uber.org/zap"
)

// memDB is an in-memory store with the same write rules as the gorm
// repositories: the sent_today ceiling, the sending-only campaign counters
// and the once-per-period cycle guard.
type memDB struct {
	mu         sync.Mutex
	tenants    map[string]domain.Tenant
	identities map[string]domain.Identity
	campaigns  map[string]domain.Campaign
	outcomes   []domain.SendOutcome
	logs       []domain.WarmupLog
}

func newMemDB() *memDB {
	return &memDB{
		tenants:    map[string]domain.Tenant{},
		identities: map[string]domain.Identity{},
		campaigns:  map[string]domain.Campaign{},
	}
}

func (db *memDB) putTenant(t domain.Tenant) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tenants[t.ID] = t
}

func (db *memDB) putIdentity(i domain.Identity) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.identities[i.ID] = i
}

func (db *memDB) putCampaign(c domain.Campaign) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c.Recipients = slices.Clone(c.Recipients)
	db.campaigns[c.ID] = c
}

func (db *memDB) identity(t *testing.T, id string) domain.Identity {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()
	i, ok := db.identities[id]
	if !ok {
		t.Fatalf("identity %s not found", id)
	}
	return i
}

func (db *memDB) campaign(t *testing.T, id string) domain.Campaign {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.campaigns[id]
	if !ok {
		t.Fatalf("campaign %s not found", id)
	}
	return c
}

func (db *memDB) outcomeCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.outcomes)
}

func (db *memDB) logCount(identityID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, l := range db.logs {
		if l.IdentityID == identityID {
			n++
		}
	}
	return n
}

type memTenantRepo struct{ db *memDB }

func (r *memTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tenants[t.ID]; ok {
		return domain.ErrConflict
	}
	r.db.tenants[t.ID] = *t
	return nil
}

func (r *memTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

type memIdentityRepo struct {
	db *memDB

	listIDsFn func(ctx context.Context, kind domain.IdentityKind) ([]string, error)
}

func (r *memIdentityRepo) Create(ctx context.Context, i *domain.Identity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.identities {
		if existing.TenantID == i.TenantID && existing.Kind == i.Kind &&
			strings.EqualFold(existing.Address, i.Address) {
			return domain.ErrConflict
		}
	}
	r.db.identities[i.ID] = *i
	return nil
}

func (r *memIdentityRepo) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.identities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &i, nil
}

func (r *memIdentityRepo) GetForTenant(ctx context.Context, tenantID, id string) (*domain.Identity, error) {
	i, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return i, nil
}

func (r *memIdentityRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]domain.Identity, 0)
	for _, i := range r.db.identities {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	slices.SortFunc(out, func(a, b domain.Identity) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *memIdentityRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	list, err := r.ListByTenant(ctx, tenantID)
	return int64(len(list)), err
}

func (r *memIdentityRepo) ListIDsByKind(ctx context.Context, kind domain.IdentityKind) ([]string, error) {
	if r.listIDsFn != nil {
		return r.listIDsFn(ctx, kind)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ids := make([]string, 0)
	for id, i := range r.db.identities {
		if i.Kind == kind {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *memIdentityRepo) Update(ctx context.Context, i *domain.Identity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.identities[i.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := *i
	next.TenantID = existing.TenantID
	next.Kind = existing.Kind
	next.Address = existing.Address
	next.SentToday = existing.SentToday
	next.CreatedAt = existing.CreatedAt
	r.db.identities[i.ID] = next
	return nil
}

func (r *memIdentityRepo) ApplyCycle(ctx context.Context, i *domain.Identity, log *domain.WarmupLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.identities[i.ID]
	if !ok || existing.LastCyclePeriod == i.LastCyclePeriod {
		return domain.ErrConflict
	}
	existing.WarmupDay = i.WarmupDay
	existing.WarmupCompleted = i.WarmupCompleted
	existing.WarmupStatus = i.WarmupStatus
	existing.DailyLimit = i.DailyLimit
	existing.SentToday = i.SentToday
	existing.LastCyclePeriod = i.LastCyclePeriod
	existing.LastResetAt = i.LastResetAt
	r.db.identities[i.ID] = existing
	if log != nil {
		r.db.logs = append(r.db.logs, *log)
	}
	return nil
}

type memCampaignRepo struct{ db *memDB }

func (r *memCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	r.db.putCampaign(*c)
	return nil
}

func (r *memCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Recipients = slices.Clone(c.Recipients)
	return &c, nil
}

func (r *memCampaignRepo) GetForTenant(ctx context.Context, tenantID, id string) (*domain.Campaign, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *memCampaignRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]domain.Campaign, 0)
	for _, c := range r.db.campaigns {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCampaignRepo) Transition(
	ctx context.Context,
	id string,
	from []domain.CampaignStatus,
	to domain.CampaignStatus,
) (*domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !slices.Contains(from, c.Status) {
		return nil, domain.ErrConflict
	}
	c.Status = to
	r.db.campaigns[id] = c
	return &c, nil
}

type memOutcomeRepo struct {
	db *memDB

	recordFn func(ctx context.Context, o *domain.SendOutcome) error
}

func (r *memOutcomeRepo) Record(ctx context.Context, o *domain.SendOutcome) error {
	if r.recordFn != nil {
		if err := r.recordFn(ctx, o); err != nil {
			return err
		}
	}
	if err := o.Validate(); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	identity, ok := r.db.identities[o.IdentityID]
	if !ok {
		return domain.ErrNotFound
	}
	if identity.SentToday+1 > identity.DailyLimit {
		return &domain.DailyLimitExceededError{
			IdentityID: identity.ID,
			Requested:  1,
			Remaining:  identity.Remaining(),
			DailyLimit: identity.DailyLimit,
		}
	}

	if o.CampaignID != nil {
		c, ok := r.db.campaigns[*o.CampaignID]
		if !ok || c.Status != domain.CampaignSending {
			return domain.ErrConflict
		}
		for _, existing := range r.db.outcomes {
			if existing.CampaignID != nil && *existing.CampaignID == *o.CampaignID && existing.Recipient == o.Recipient {
				return domain.ErrConflict
			}
		}
		c.SentCount++
		switch o.Outcome {
		case domain.OutcomeDelivered:
			c.DeliveredCount++
		case domain.OutcomeBounced:
			c.BounceCount++
		case domain.OutcomeSpamComplaint:
			c.SpamCount++
		}
		r.db.campaigns[c.ID] = c
	}

	identity.SentToday++
	r.db.identities[identity.ID] = identity
	r.db.outcomes = append(r.db.outcomes, *o)
	return nil
}

func (r *memOutcomeRepo) Tally(ctx context.Context, identityID string, since time.Time) (domain.OutcomeTally, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var tally domain.OutcomeTally
	for _, o := range r.db.outcomes {
		if o.IdentityID != identityID || o.CreatedAt.Before(since) {
			continue
		}
		tally.Add(o.Outcome, 1)
	}
	return tally, nil
}

func (r *memOutcomeRepo) RecipientsWithOutcome(ctx context.Context, campaignID string) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]string, 0)
	for _, o := range r.db.outcomes {
		if o.CampaignID != nil && *o.CampaignID == campaignID {
			out = append(out, o.Recipient)
		}
	}
	return out, nil
}

type memWarmupLogRepo struct{ db *memDB }

func (r *memWarmupLogRepo) ListRecent(ctx context.Context, identityID string, limit int) ([]domain.WarmupLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]domain.WarmupLog, 0)
	for i := len(r.db.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.db.logs[i].IdentityID == identityID {
			out = append(out, r.db.logs[i])
		}
	}
	return out, nil
}

var (
	_ repository.TenantRepository    = (*memTenantRepo)(nil)
	_ repository.IdentityRepository  = (*memIdentityRepo)(nil)
	_ repository.CampaignRepository  = (*memCampaignRepo)(nil)
	_ repository.OutcomeRepository   = (*memOutcomeRepo)(nil)
	_ repository.WarmupLogRepository = (*memWarmupLogRepo)(nil)
)

type fakeSender struct {
	mu     sync.Mutex
	calls  int
	sendFn func(ctx context.Context, msg provider.Message) (domain.Outcome, error)
}

func (f *fakeSender) Send(ctx context.Context, msg provider.Message) (domain.Outcome, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return domain.OutcomeDelivered, nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.CampaignMessage) error
	closeFn   func() error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.CampaignMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, identityID string) (bool, error)
	waitFn  func(ctx context.Context, identityID string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, identityID string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, identityID)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, identityID string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, identityID)
	}
	return nil
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

type fakeDispatcher struct {
	dispatchFn func(ctx context.Context, campaignID string) (*DispatchReport, error)
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, campaignID string) (*DispatchReport, error) {
	if f.dispatchFn != nil {
		return f.dispatchFn(ctx, campaignID)
	}
	return &DispatchReport{CampaignID: campaignID, Status: domain.CampaignCompleted}, nil
}

// testEnv wires every service against one memDB.
type testEnv struct {
	db         *memDB
	tenants    *memTenantRepo
	identities *memIdentityRepo
	campaigns  *memCampaignRepo
	outcomes   *memOutcomeRepo
	logs       *memWarmupLogRepo
	locker     *lock.Local
	plans      *plan.Resolver
	admission  *admission.Controller
	sender     *fakeSender
	publisher  *fakePublisher

	health     *HealthService
	aggregator *Aggregator
	dispatcher *Dispatcher
	scheduler  *WarmupScheduler
	identitySv *IdentityService
	campaignSv *CampaignService
	tenantSv   *TenantService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	env := &testEnv{
		db:         db,
		tenants:    &memTenantRepo{db: db},
		identities: &memIdentityRepo{db: db},
		campaigns:  &memCampaignRepo{db: db},
		outcomes:   &memOutcomeRepo{db: db},
		logs:       &memWarmupLogRepo{db: db},
		locker:     lock.NewLocal(),
		sender:     &fakeSender{},
		publisher:  &fakePublisher{},
	}

	var err error
	env.plans, err = plan.NewResolver(plan.DefaultTable(), nil)
	mustNoErr(t, err)
	env.admission, err = admission.NewController(env.plans)
	mustNoErr(t, err)

	env.health, err = NewHealthService(env.identities, env.outcomes, env.locker, zap.NewNop())
	mustNoErr(t, err)
	env.aggregator, err = NewAggregator(env.outcomes, env.health, env.locker, zap.NewNop())
	mustNoErr(t, err)
	env.dispatcher, err = NewDispatcher(
		env.campaigns, env.identities, env.outcomes, env.aggregator, env.admission,
		env.sender, ratelimit.Unlimited{}, env.locker, zap.NewNop(),
	)
	mustNoErr(t, err)
	env.dispatcher.randIntn = func(int) int { return 0 }

	env.scheduler, err = NewWarmupScheduler(
		env.identities, env.outcomes, env.tenants, env.plans, env.health,
		env.locker, warmup.DefaultConfig(), time.Hour, zap.NewNop(),
	)
	mustNoErr(t, err)
	env.identitySv, err = NewIdentityService(
		env.identities, env.tenants, env.logs, env.admission,
		provider.NewPassingDNSChecker(), env.locker, warmup.DefaultConfig(), zap.NewNop(),
	)
	mustNoErr(t, err)
	env.campaignSv, err = NewCampaignService(
		env.campaigns, env.identities, env.tenants, env.outcomes, env.admission,
		env.publisher, zap.NewNop(),
	)
	mustNoErr(t, err)
	env.tenantSv, err = NewTenantService(env.tenants, env.plans, zap.NewNop())
	mustNoErr(t, err)

	return env
}

func scrape(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func testTenant(id string, tier domain.Tier) domain.Tenant {
	return domain.Tenant{ID: id, Email: id + "@example.com", Plan: tier}
}

func testDomainIdentity(id, tenantID string, dailyLimit, sentToday int) domain.Identity {
	return domain.Identity{
		ID:              id,
		TenantID:        tenantID,
		Kind:            domain.KindDomain,
		Address:         id + ".example.com",
		Mode:            domain.ModeColdOutreach,
		DailyLimit:      dailyLimit,
		SentToday:       sentToday,
		HealthScore:     domain.MaxHealthScore,
		HealthStatus:    domain.HealthHealthy,
		BounceThreshold: domain.DefaultBounceThreshold,
		SpamThreshold:   domain.DefaultSpamThreshold,
	}
}

func testMailbox(id, tenantID string) domain.Identity {
	return domain.Identity{
		ID:                id,
		TenantID:          tenantID,
		Kind:              domain.KindMailbox,
		Address:           id + "@example.com",
		Mode:              domain.ModeColdOutreach,
		DailyLimit:        domain.DefaultMailboxDailyVolume,
		HealthScore:       domain.MaxHealthScore,
		HealthStatus:      domain.HealthHealthy,
		BounceThreshold:   domain.DefaultBounceThreshold,
		SpamThreshold:     domain.DefaultMailboxSpamThreshold,
		Verified:          true,
		WarmupEnabled:     true,
		WarmupStatus:      domain.WarmupActive,
		WarmupDailyVolume: domain.DefaultMailboxDailyVolume,
		WarmupRampUp:      domain.DefaultMailboxRampUp,
		DailySendLimit:    domain.DefaultMailboxDailySendLimit,
	}
}

func testCampaign(id, tenantID, identityID string, status domain.CampaignStatus, recipients ...string) domain.Campaign {
	return domain.Campaign{
		ID:         id,
		TenantID:   tenantID,
		IdentityID: identityID,
		Name:       "launch",
		Subject:    "Quick question",
		Body:       "Hi there, I wanted to reach out about your recent launch.",
		Recipients: recipients,
		Status:     status,
	}
}

func recipients(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "user" + string(rune('a'+i%26)) + strings.Repeat("x", i/26) + "@example.com"
	}
	return out
}
