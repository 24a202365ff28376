package controller

import (
	"context"
	"fmt"
	"sort"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"smmpanel/src/metrics"
	"smmpanel/src/model"
	"smmpanel/src/notify"
)

const defaultSyncMaxAttempts = 3

// SyncOutcome is what happened to one order during a pass.
type SyncOutcome string

const (
	SyncChanged   SyncOutcome = metrics.OutcomeChanged
	SyncUnchanged SyncOutcome = metrics.OutcomeUnchanged
	SyncFailed    SyncOutcome = metrics.OutcomeError
	SyncGaveUp    SyncOutcome = metrics.OutcomeGaveUp
)

// SyncResult describes one order after its sync attempt.
type SyncResult struct {
	Order   model.Order
	Outcome SyncOutcome
	Err     error
}

// PassSummary aggregates a reconciliation pass.
type PassSummary struct {
	Candidates int
	Changed    int
	Unchanged  int
	Failed     int
	GaveUp     int
	Results    []SyncResult
}

// Reconciler keeps local order statuses in line with the panel.
type Reconciler struct {
	panel       panelGateway
	orders      orderStore
	keys        *KeyResolver
	notifier    notify.Notifier
	exceptions  exceptionRepository
	maxAttempts int
	concurrency int
	service     string
	now         func() time.Time
}

func NewReconciler(
	panel panelGateway,
	orders orderStore,
	keys *KeyResolver,
	notifier notify.Notifier,
	exceptions exceptionRepository,
	config Config,
) *Reconciler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	maxAttempts := config.SyncMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultSyncMaxAttempts
	}

	return &Reconciler{
		panel:       panel,
		orders:      orders,
		keys:        keys,
		notifier:    notifier,
		exceptions:  exceptions,
		maxAttempts: maxAttempts,
		concurrency: config.SyncConcurrency,
		service:     config.ServiceName,
		now:         time.Now,
	}
}

// Dedupe sorts orders newest first and keeps only the newest order per
// upstream id. Orders without an upstream id are all kept.
func Dedupe(orders []model.Order) []model.Order {
	sorted := make([]model.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(sorted))
	unique := make([]model.Order, 0, len(sorted))
	for _, o := range sorted {
		if id := o.UpstreamID(); id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		unique = append(unique, o)
	}
	return unique
}

// IsSyncEligible reports whether the order is refreshed from the panel.
func IsSyncEligible(o model.Order) bool {
	return o.HasUpstreamID() && o.Status.IsSyncable()
}

// SelectEligible returns the orders needing a status refresh, in input order.
func SelectEligible(orders []model.Order) []model.Order {
	eligible := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if IsSyncEligible(o) {
			eligible = append(eligible, o)
		}
	}
	return eligible
}

// ListOrders loads the orders, runs a pass over the eligible ones and
// returns a fresh read. A failed re-read falls back to the pre-sync list.
func (r *Reconciler) ListOrders(ctx context.Context) ([]model.Order, error) {
	stored, err := r.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := Dedupe(stored)
	if len(SelectEligible(orders)) == 0 {
		return orders, nil
	}

	r.Reconcile(ctx, orders)

	fresh, err := r.orders.List(ctx)
	if err != nil {
		logger.WithField("component", "Reconciler").
			WithError(err).
			Warn("Re-reading orders after sync failed, returning pre-sync snapshot")
		return orders, nil
	}
	return fresh, nil
}

// RunPass loads the stored orders and reconciles them once.
func (r *Reconciler) RunPass(ctx context.Context) (PassSummary, error) {
	stored, err := r.orders.List(ctx)
	if err != nil {
		return PassSummary{}, fmt.Errorf("list orders: %w", err)
	}
	return r.Reconcile(ctx, stored), nil
}

// Reconcile syncs every eligible order concurrently and waits for all of
// them. A failing order never affects the others.
func (r *Reconciler) Reconcile(ctx context.Context, orders []model.Order) PassSummary {
	candidates := SelectEligible(Dedupe(orders))
	summary := PassSummary{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return summary
	}

	metrics.ReconcilePasses.Inc()

	// Branches outlive a cancelled caller; each panel call has its own timeout.
	branchCtx := context.WithoutCancel(ctx)

	results := make([]SyncResult, len(candidates))
	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i := range candidates {
		i := i
		g.Go(func() error {
			results[i] = r.SyncOrder(branchCtx, candidates[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		switch res.Outcome {
		case SyncChanged:
			summary.Changed++
		case SyncUnchanged:
			summary.Unchanged++
		case SyncFailed:
			summary.Failed++
		case SyncGaveUp:
			summary.GaveUp++
		}
	}
	summary.Results = results

	logger.WithFields(map[string]interface{}{
		"component":  "Reconciler",
		"candidates": summary.Candidates,
		"changed":    summary.Changed,
		"failed":     summary.Failed + summary.GaveUp,
	}).Info("Reconciliation pass finished")

	return summary
}

// SyncOrder refreshes one order from the panel and persists the outcome.
func (r *Reconciler) SyncOrder(ctx context.Context, order model.Order) (result SyncResult) {
	defer func() { metrics.OrderSyncs.WithLabelValues(string(result.Outcome)).Inc() }()

	key, err := r.keys.Resolve(ctx, "")
	var status *model.OrderStatusResponse
	if err == nil {
		status, err = r.panel.GetOrderStatus(ctx, key, order.UpstreamID())
	}
	if err != nil {
		return r.recordFailure(ctx, order, err)
	}

	newStatus := status.MappedStatus
	if newStatus == "" {
		newStatus = model.OrderStatusPending
	}
	if newStatus == order.Status {
		return SyncResult{Order: order, Outcome: SyncUnchanged}
	}

	now := r.now()
	if newStatus == model.OrderStatusCompleted && order.Status != model.OrderStatusCompleted {
		order.CompletedAt = &now
	}
	previous := order.Status
	order.Status = newStatus
	order.UpstreamData = string(status.Raw)
	order.UpdatedAt = now

	saved, err := r.orders.Upsert(ctx, order)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "Reconciler",
			"order_id":  order.ID,
		}).WithError(err).Error("Failed to persist synced order")
		return SyncResult{Order: order, Outcome: SyncFailed, Err: err}
	}

	logger.WithFields(map[string]interface{}{
		"component":   "Reconciler",
		"order_id":    saved.ID,
		"upstream_id": saved.UpstreamID(),
		"from":        previous,
		"to":          saved.Status,
	}).Info("Order status updated from panel")

	r.notify(ctx, *saved)
	return SyncResult{Order: *saved, Outcome: SyncChanged}
}

// recordFailure bumps the attempt counter and gives up on the order once it
// exceeds the threshold. The order is persisted in every case.
func (r *Reconciler) recordFailure(ctx context.Context, order model.Order, cause error) SyncResult {
	order.SyncAttempts++
	order.UpdatedAt = r.now()

	fields := map[string]interface{}{
		"component":     "Reconciler",
		"order_id":      order.ID,
		"upstream_id":   order.UpstreamID(),
		"sync_attempts": order.SyncAttempts,
	}

	outcome := SyncFailed
	if order.SyncAttempts > r.maxAttempts {
		outcome = SyncGaveUp
		order.Status = model.OrderStatusError
		order.Error = fmt.Sprintf("sync failed after %d attempts", order.SyncAttempts)

		Capture(ctx, r.exceptions, r.service, "reconciler", "SyncOrder", &order, cause, map[string]interface{}{
			"sync_attempts": order.SyncAttempts,
		})
	} else {
		logger.WithFields(fields).WithError(cause).Warn("Order sync failed")
	}

	saved, err := r.orders.Upsert(ctx, order)
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Failed to persist sync failure")
		return SyncResult{Order: order, Outcome: outcome, Err: cause}
	}

	if outcome == SyncGaveUp {
		r.notify(ctx, *saved)
	}
	return SyncResult{Order: *saved, Outcome: outcome, Err: cause}
}

func (r *Reconciler) notify(ctx context.Context, order model.Order) {
	if err := r.notifier.NotifyStatus(ctx, order); err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "Reconciler",
			"order_id":  order.ID,
		}).WithError(err).Warn("Status notification failed")
	}
}
