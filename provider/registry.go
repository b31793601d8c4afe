package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaultmesh/checkout/api/util"
	"github.com/vaultmesh/checkout/database/orm"
	"github.com/vaultmesh/checkout/database/store"
)

// Registry is a process-wide, read-mostly mapping from provider slug to
// concrete adapter, populated at startup by the caller (dependency
// injection at the edge, per SPEC_FULL.md §9 — no package-level
// singleton lookup in the core).
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	degraded map[string]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: map[string]Adapter{},
		degraded: map[string]bool{},
	}
}

// Register adds an adapter under its own slug. Call before Init.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Slug()] = a
}

// Init calls Initialize on every registered adapter, sequentially (no
// ordering guarantee is promised or needed). A failing adapter is
// flagged degraded so the rest of the registry keeps working.
func (r *Registry) Init(ctx context.Context) {
	r.mu.RLock()
	adapters := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.mu.RUnlock()

	for _, a := range adapters {
		if err := a.Initialize(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"provider": a.Slug(),
				"error":    err,
			}).Error("adapter initialize failed, marking degraded")
			r.mu.Lock()
			r.degraded[a.Slug()] = true
			r.mu.Unlock()
			continue
		}

		logrus.WithField("provider", a.Slug()).Info("adapter initialized")
	}
}

// Get returns the adapter for slug, or an error if none is registered.
func (r *Registry) Get(slug string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[slug]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered", slug)
	}

	return a, nil
}

// GetOrNone returns the adapter for slug, or nil.
func (r *Registry) GetOrNone(slug string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[slug]
}

// IsDegraded reports whether the adapter failed Initialize.
func (r *Registry) IsDegraded(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.degraded[slug]
}

// All returns every registered adapter, in no particular order.
func (r *Registry) All() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}

	return out
}

// Available filters All() by IsAvailable, calling each adapter
// sequentially with a short per-call timeout.
func (r *Registry) Available(ctx context.Context) []Adapter {
	out := make([]Adapter, 0)
	for _, a := range r.All() {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		ok := a.IsAvailable(probeCtx)
		cancel()
		if ok {
			out = append(out, a)
		}
	}

	return out
}

// SyncOutcome summarizes one adapter's reconciliation pass.
type SyncOutcome struct {
	Slug    string
	Added   int
	Updated int
	Removed int
	Errors  []error
}

// SyncAll reconciles every adapter's remote plan catalog into the
// store: add missing, update changed (bumping version), mark absent as
// UNAVAILABLE. One provider's failure never blocks another's — per-plan
// errors are collected, not thrown, per spec.
func (r *Registry) SyncAll(ctx context.Context, st store.Store) []SyncOutcome {
	outcomes := make([]SyncOutcome, 0)
	for _, a := range r.All() {
		outcomes = append(outcomes, r.syncOne(ctx, st, a))
	}

	return outcomes
}

func (r *Registry) syncOne(ctx context.Context, st store.Store, a Adapter) SyncOutcome {
	outcome := SyncOutcome{Slug: a.Slug()}

	prov, err := st.GetProviderBySlug(ctx, a.Slug())
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Errorf("lookup provider %q: %w", a.Slug(), err))
		return outcome
	}

	log := &orm.ProviderSyncLog{
		ProviderID: prov.ID,
		StartedAt:  time.Now().UTC(),
	}
	if err := st.CreateProviderSyncLog(ctx, log); err != nil {
		logrus.WithError(err).Warn("failed to create provider sync log")
	}

	plans, err := a.GetAvailablePlans(ctx)
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Errorf("get plans for %q: %w", a.Slug(), err))
		r.finishLog(ctx, st, log, outcome)
		return outcome
	}

	keep := make([]string, 0, len(plans))
	for _, p := range plans {
		keep = append(keep, p.ExternalPlanID)

		existing, lookupErr := st.GetPlanByExternalID(ctx, prov.ID, p.ExternalPlanID)
		isNew := lookupErr == store.ErrNotFound

		if err := st.UpsertPlan(ctx, &orm.StoragePlan{
			ProviderID:     prov.ID,
			ExternalPlanID: p.ExternalPlanID,
			SizeGB:         p.SizeGB,
			SizeBytes:      p.SizeBytes,
			DurationDays:   p.DurationDays,
			PriceCents:     p.PriceCents,
			PriceNative:    p.PriceNative,
			Currency:       p.Currency,
			Status:         orm.PlanStatusAvailable,
			Active:         true,
		}); err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Errorf("upsert plan %q: %w", p.ExternalPlanID, err))
			continue
		}

		if isNew {
			outcome.Added++
			logrus.WithFields(logrus.Fields{
				"provider": a.Slug(),
				"plan":     p.ExternalPlanID,
				"size":     util.HumanReadableBytes(p.SizeBytes),
			}).Info("discovered new plan")
		} else if existing != nil {
			outcome.Updated++
		}
	}

	removed, err := st.MarkPlansUnavailable(ctx, prov.ID, keep)
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Errorf("mark plans unavailable for %q: %w", a.Slug(), err))
	} else {
		outcome.Removed = int(removed)
	}

	r.finishLog(ctx, st, log, outcome)
	return outcome
}

func (r *Registry) finishLog(ctx context.Context, st store.Store, log *orm.ProviderSyncLog, o SyncOutcome) {
	log.PlansAdded = uint32(o.Added)
	log.PlansUpdated = uint32(o.Updated)
	log.PlansRemoved = uint32(o.Removed)
	log.ErrorCount = uint32(len(o.Errors))
	if len(o.Errors) > 0 {
		log.LastError = o.Errors[len(o.Errors)-1].Error()
	}

	if err := st.FinishProviderSyncLog(ctx, log); err != nil {
		logrus.WithError(err).Warn("failed to finish provider sync log")
	}
}
