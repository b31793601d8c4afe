// Package storetest provides an in-memory Store double for exercising
// the checkout initiator, webhook ingestor and orchestrator without a
// live database, per SPEC_FULL.md's testability decision.
package storetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

// Fake is a goroutine-safe, in-memory Store.
type Fake struct {
	mu sync.Mutex

	users        map[string]*orm.User
	providers    map[string]*orm.Provider
	plans        map[string]*orm.StoragePlan
	orders       map[string]*orm.Order
	payments     map[string]*orm.Payment
	transactions map[string]*orm.BlockchainTransaction
	syncLogs     map[string]*orm.ProviderSyncLog
	config       map[string]*orm.SystemConfig
}

// New returns an empty Fake store.
func New() *Fake {
	return &Fake{
		users:        map[string]*orm.User{},
		providers:    map[string]*orm.Provider{},
		plans:        map[string]*orm.StoragePlan{},
		orders:       map[string]*orm.Order{},
		payments:     map[string]*orm.Payment{},
		transactions: map[string]*orm.BlockchainTransaction{},
		syncLogs:     map[string]*orm.ProviderSyncLog{},
		config:       map[string]*orm.SystemConfig{},
	}
}

// SeedSystemConfig inserts a config row directly, for test fixtures.
func (f *Fake) SeedSystemConfig(c *orm.SystemConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config[c.Key] = c
}

// SeedUser inserts a user directly, bypassing validation, for test
// fixtures.
func (f *Fake) SeedUser(u *orm.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

// SeedProvider inserts a provider directly.
func (f *Fake) SeedProvider(p *orm.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[p.ID] = p
}

// SeedPlan inserts a plan directly.
func (f *Fake) SeedPlan(p *orm.StoragePlan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans[p.ID] = p
}

// Transaction runs fn against the same Fake: the in-memory store has no
// isolation levels to speak of, so this only provides the call shape
// tests exercise, not real atomicity. A panic or error inside fn does
// not roll back prior writes; tests that need that guarantee should
// assert on the returned error directly.
func (f *Fake) Transaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(f)
}

func (f *Fake) GetUser(_ context.Context, id string) (*orm.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetUserByEmail(_ context.Context, email string) (*orm.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) SetUserProcessorCustomer(_ context.Context, userID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.ProcessorCustomerID = &customerID
	return nil
}

func (f *Fake) GetProvider(_ context.Context, id string) (*orm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.providers[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetProviderBySlug(_ context.Context, slug string) (*orm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.providers {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) ListProviders(_ context.Context) ([]*orm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*orm.Provider, 0, len(f.providers))
	for _, p := range f.providers {
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) GetPlan(_ context.Context, id string) (*orm.StoragePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetPlanByExternalID(_ context.Context, providerID, externalPlanID string) (*orm.StoragePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.ProviderID == providerID && p.ExternalPlanID == externalPlanID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) ListPlansByProvider(_ context.Context, providerID string) ([]*orm.StoragePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*orm.StoragePlan, 0)
	for _, p := range f.plans {
		if p.ProviderID == providerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *Fake) UpsertPlan(_ context.Context, plan *orm.StoragePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.ProviderID == plan.ProviderID && p.ExternalPlanID == plan.ExternalPlanID {
			plan.ID = p.ID
			plan.Version = p.Version + 1
			f.plans[p.ID] = plan
			return nil
		}
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *Fake) MarkPlansUnavailable(_ context.Context, providerID string, keepExternalIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := map[string]bool{}
	for _, id := range keepExternalIDs {
		keep[id] = true
	}
	var n int64
	for _, p := range f.plans {
		if p.ProviderID != providerID || p.Status != orm.PlanStatusAvailable {
			continue
		}
		if keep[p.ExternalPlanID] {
			continue
		}
		p.Status = orm.PlanStatusUnavailable
		n++
	}
	return n, nil
}

func (f *Fake) CreateOrder(_ context.Context, order *orm.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.IdempotencyKey != nil {
		for _, o := range f.orders {
			if o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return store.ErrConflict
			}
		}
	}
	f.orders[order.ID] = order
	return nil
}

func (f *Fake) GetOrder(_ context.Context, id string) (*orm.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetOrderByIdempotencyKey(_ context.Context, key string) (*orm.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetOrderByNumber(_ context.Context, orderNumber string) (*orm.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) UpdateOrderStatus(
	_ context.Context,
	id string,
	from, next orm.OrderStatus,
	mutate func(*orm.Order),
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status != from {
		return store.ErrInvalidOrderStatus(o.Status, from)
	}
	if !from.CanTransition(next) {
		return store.ErrIllegalOrderTransition(from, next)
	}
	o.Status = next
	if mutate != nil {
		mutate(o)
	}
	return nil
}

func (f *Fake) UpdateOrder(_ context.Context, order *orm.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	f.orders[order.ID] = order
	return nil
}

func (f *Fake) ListOrdersAwaitingAllocation(_ context.Context, limit int) ([]*orm.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*orm.Order, 0)
	for _, o := range f.orders {
		if o.Status != orm.OrderStatusPaymentCompleted {
			continue
		}
		hasLive := false
		for _, t := range f.transactions {
			if t.OrderID == o.ID && t.Status != orm.TransactionStatusFailed {
				hasLive = true
				break
			}
		}
		if !hasLive {
			out = append(out, o)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *Fake) CreatePayment(_ context.Context, p *orm.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ProcessorSessionID != nil {
		for _, existing := range f.payments {
			if existing.ProcessorSessionID != nil && *existing.ProcessorSessionID == *p.ProcessorSessionID {
				return store.ErrConflict
			}
		}
	}
	f.payments[p.ID] = p
	return nil
}

func (f *Fake) GetPayment(_ context.Context, id string) (*orm.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetLivePaymentByOrderID(_ context.Context, orderID string) (*orm.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.OrderID == orderID && p.Status.IsLive() {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetPaymentBySessionID(_ context.Context, sessionID string) (*orm.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ProcessorSessionID != nil && *p.ProcessorSessionID == sessionID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetPaymentByIntentID(_ context.Context, intentID string) (*orm.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ProcessorPaymentIntentID != nil && *p.ProcessorPaymentIntentID == intentID {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) UpdatePayment(_ context.Context, p *orm.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[p.ID]; !ok {
		return store.ErrNotFound
	}
	f.payments[p.ID] = p
	return nil
}

func (f *Fake) CreateBlockchainTransaction(_ context.Context, t *orm.BlockchainTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *Fake) GetBlockchainTransaction(_ context.Context, id string) (*orm.BlockchainTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.transactions[id]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (f *Fake) GetLiveTransactionByOrderID(_ context.Context, orderID string) (*orm.BlockchainTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.OrderID == orderID && t.Status != orm.TransactionStatusFailed {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Fake) UpdateBlockchainTransaction(_ context.Context, t *orm.BlockchainTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transactions[t.ID]; !ok {
		return store.ErrNotFound
	}
	f.transactions[t.ID] = t
	return nil
}

func (f *Fake) ListTransactionsByStatus(
	_ context.Context,
	statuses []orm.TransactionStatus,
	limit int,
) ([]*orm.BlockchainTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[orm.TransactionStatus]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	out := make([]*orm.BlockchainTransaction, 0)
	for _, t := range f.transactions {
		if want[t.Status] {
			out = append(out, t)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *Fake) CreateProviderSyncLog(_ context.Context, l *orm.ProviderSyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	f.syncLogs[l.ID] = l
	return nil
}

func (f *Fake) FinishProviderSyncLog(_ context.Context, l *orm.ProviderSyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.syncLogs[l.ID]; !ok {
		return store.ErrNotFound
	}
	f.syncLogs[l.ID] = l
	return nil
}

func (f *Fake) GetSystemConfig(_ context.Context, key string) (*orm.SystemConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.config[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

var _ store.Store = (*Fake)(nil)
