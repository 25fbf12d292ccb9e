package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"waypoint/internal/domain"
	apperrors "waypoint/internal/errors"
	"waypoint/internal/notifier"
	"waypoint/internal/payment"
	"waypoint/internal/selection"
	"waypoint/internal/wizard"
)

type CatalogClient interface {
	GetItem(ctx context.Context, service domain.ServiceType, id string) (*domain.CatalogItem, error)
}

// catalogInvalidator is implemented by caching catalog clients.
type catalogInvalidator interface {
	Invalidate(service domain.ServiceType, id string)
}

type DraftRepository interface {
	Save(ctx context.Context, d domain.Draft) error
	FindByID(ctx context.Context, id string, now time.Time) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Notifier interface {
	NotifyFailure(ctx context.Context, alert notifier.FailureAlert) error
}

// WizardUseCase owns the live wizards of this process. Every change is
// written through to the draft store so that a wizard evicted from memory,
// or lost in a restart, is rebuilt on its next request.
type WizardUseCase struct {
	mu      sync.RWMutex
	wizards map[string]*wizard.Wizard

	catalog  CatalogClient
	drafts   DraftRepository
	notifier Notifier
	policies map[domain.ServiceType]selection.Policy
	deps     wizard.Deps
	draftTTL time.Duration
	logger   *zap.Logger
	newID    func() string
}

func NewWizardUseCase(
	catalog CatalogClient,
	drafts DraftRepository,
	alerts Notifier,
	policies map[domain.ServiceType]selection.Policy,
	deps wizard.Deps,
	draftTTL time.Duration,
	logger *zap.Logger,
) *WizardUseCase {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if alerts == nil {
		alerts = notifier.Nop{}
	}
	deps.Logger = logger
	return &WizardUseCase{
		wizards:  make(map[string]*wizard.Wizard),
		catalog:  catalog,
		drafts:   drafts,
		notifier: alerts,
		policies: policies,
		deps:     deps,
		draftTTL: draftTTL,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func (uc *WizardUseCase) depsFor(service domain.ServiceType) wizard.Deps {
	d := uc.deps
	d.Policy = uc.policies[service]
	return d
}

// Create opens a wizard for a catalog item. An item that does not exist or
// cannot be booked is a missing precondition, not an in-wizard error.
func (uc *WizardUseCase) Create(ctx context.Context, service domain.ServiceType, itemID string, identity *domain.Identity) (wizard.View, error) {
	uc.logger.Info("create wizard started", zap.String("serviceType", string(service)), zap.String("itemId", itemID))

	if !service.IsValid() {
		return wizard.View{}, apperrors.NewPreconditionMissingError(fmt.Sprintf("unknown service type %q", service), "/")
	}
	item, err := uc.catalog.GetItem(ctx, service, itemID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return wizard.View{}, apperrors.NewPreconditionMissingError(err.Error(), "/"+string(service)+"s")
		}
		return wizard.View{}, err
	}

	w, err := wizard.New(uc.newID(), item, identity, uc.depsFor(service))
	if err != nil {
		return wizard.View{}, err
	}

	uc.mu.Lock()
	uc.wizards[w.ID()] = w
	uc.mu.Unlock()

	uc.persist(ctx, w)
	uc.logger.Info("wizard created", zap.String("wizardId", w.ID()))
	return w.View(), nil
}

func (uc *WizardUseCase) get(ctx context.Context, id string) (*wizard.Wizard, error) {
	uc.mu.RLock()
	w, ok := uc.wizards[id]
	uc.mu.RUnlock()
	if ok {
		return w, nil
	}

	stored, err := uc.drafts.FindByID(ctx, id, uc.deps.Now())
	if err != nil {
		return nil, err
	}
	var draft wizard.Draft
	if err := json.Unmarshal(stored.Payload, &draft); err != nil {
		return nil, apperrors.NewInternalError("decoding wizard draft", err)
	}
	restored, err := wizard.Restore(draft, uc.depsFor(draft.Item.ServiceType))
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	// Another request may have restored it first.
	if existing, ok := uc.wizards[id]; ok {
		return existing, nil
	}
	uc.wizards[id] = restored
	uc.logger.Info("wizard restored from draft", zap.String("wizardId", id), zap.String("state", string(restored.State())))
	return restored, nil
}

func (uc *WizardUseCase) View(ctx context.Context, id string) (wizard.View, error) {
	w, err := uc.get(ctx, id)
	if err != nil {
		return wizard.View{}, err
	}
	return w.View(), nil
}

// apply runs one command and persists the result. The view is returned
// even when the command failed, so guard errors can be shown next to it.
func (uc *WizardUseCase) apply(ctx context.Context, id string, cmd func(w *wizard.Wizard) error) (wizard.View, error) {
	w, err := uc.get(ctx, id)
	if err != nil {
		return wizard.View{}, err
	}
	cmdErr := cmd(w)
	uc.persist(ctx, w)
	return w.View(), cmdErr
}

func (uc *WizardUseCase) SetPartyCount(ctx context.Context, id string, category domain.PartyCategory, delta int) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.SetPartyCount(category, delta) })
}

func (uc *WizardUseCase) ToggleUnit(ctx context.Context, id, unitID string) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error {
		_, err := w.ToggleUnit(unitID)
		return err
	})
}

func (uc *WizardUseCase) SetRequestedUnits(ctx context.Context, id string, n int) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.SetRequestedUnits(n) })
}

func (uc *WizardUseCase) SetDateRange(ctx context.Context, id string, r domain.DateRange) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.SetDateRange(r) })
}

func (uc *WizardUseCase) SetDetails(ctx context.Context, id string, passengers []domain.PassengerRecord, contact domain.Contact) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.SetDetails(passengers, contact) })
}

func (uc *WizardUseCase) SetPayment(ctx context.Context, id string, ps domain.PaymentSelection) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.SetPayment(ps) })
}

func (uc *WizardUseCase) Next(ctx context.Context, id string) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.Next() })
}

func (uc *WizardUseCase) Back(ctx context.Context, id string) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.Back() })
}

func (uc *WizardUseCase) Retry(ctx context.Context, id string) (wizard.View, error) {
	return uc.apply(ctx, id, func(w *wizard.Wizard) error { return w.Retry() })
}

// Submit sends the booking. The call is detached from the request's
// cancellation: a customer closing the tab must not leave the outcome
// unrecorded. identity is the caller of this request, nil when anonymous.
func (uc *WizardUseCase) Submit(ctx context.Context, id string, identity *domain.Identity) (wizard.View, error) {
	return uc.submit(ctx, id, func(ctx context.Context, w *wizard.Wizard) error { return w.Submit(ctx, identity) })
}

func (uc *WizardUseCase) Resubmit(ctx context.Context, id string, identity *domain.Identity) (wizard.View, error) {
	return uc.submit(ctx, id, func(ctx context.Context, w *wizard.Wizard) error { return w.Resubmit(ctx, identity) })
}

func (uc *WizardUseCase) submit(ctx context.Context, id string, send func(context.Context, *wizard.Wizard) error) (wizard.View, error) {
	detached := context.WithoutCancel(ctx)
	view, err := uc.apply(detached, id, func(w *wizard.Wizard) error { return send(detached, w) })
	if err != nil || view.Failure == nil {
		return view, err
	}

	// A conflict usually means availability changed under the cached item.
	if inv, ok := uc.catalog.(catalogInvalidator); ok && view.Failure.Kind == wizard.KindConflict {
		inv.Invalidate(view.Item.ServiceType, view.Item.ID)
	}
	if view.Failure.Category == wizard.CategorySystemError {
		alert := notifier.FailureAlert{
			WizardID:       view.ID,
			ServiceType:    string(view.Item.ServiceType),
			ItemID:         view.Item.ID,
			Category:       string(view.Failure.Category),
			Message:        view.Failure.Message,
			IdempotencyKey: view.IdempotencyKey,
			Total:          view.Price.FinalTotal,
			At:             uc.deps.Now(),
		}
		if nerr := uc.notifier.NotifyFailure(detached, alert); nerr != nil {
			uc.logger.Warn("failure alert not sent", zap.String("wizardId", view.ID), zap.Error(nerr))
		}
	}
	return view, nil
}

// persist writes the wizard's draft, or removes it once the booking
// succeeded. Store errors are logged; the live wizard stays usable.
func (uc *WizardUseCase) persist(ctx context.Context, w *wizard.Wizard) {
	snap := w.Snapshot()
	log := uc.logger.With(zap.String("wizardId", snap.ID))

	if snap.State == wizard.StateSucceeded {
		if err := uc.drafts.Delete(ctx, snap.ID); err != nil {
			log.Warn("deleting completed draft failed", zap.Error(err))
		}
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		log.Error("encoding draft failed", zap.Error(err))
		return
	}
	now := uc.deps.Now()
	err = uc.drafts.Save(ctx, domain.Draft{
		ID:          snap.ID,
		State:       string(snap.State),
		ServiceType: snap.Item.ServiceType,
		ItemID:      snap.Item.ID,
		Payload:     payload,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(uc.draftTTL),
	})
	if err != nil {
		log.Warn("saving draft failed", zap.Error(err))
	}
}

// PurgeExpired drops drafts and live wizards idle for longer than the draft
// TTL.
func (uc *WizardUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	now := uc.deps.Now()
	removed, err := uc.drafts.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	uc.mu.Lock()
	for id, w := range uc.wizards {
		if now.Sub(w.UpdatedAt()) >= uc.draftTTL {
			delete(uc.wizards, id)
		}
	}
	uc.mu.Unlock()

	if removed > 0 {
		uc.logger.Info("expired drafts purged", zap.Int64("count", removed))
	}
	return removed, nil
}

// RunJanitor purges on every tick until ctx is done.
func (uc *WizardUseCase) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.PurgeExpired(ctx); err != nil {
				uc.logger.Warn("purging drafts failed", zap.Error(err))
			}
		}
	}
}

func (uc *WizardUseCase) PaymentMethods() []payment.Adapter {
	if uc.deps.Payments == nil {
		return nil
	}
	return uc.deps.Payments.List()
}

func (uc *WizardUseCase) CatalogItem(ctx context.Context, service domain.ServiceType, id string) (*domain.CatalogItem, error) {
	return uc.catalog.GetItem(ctx, service, id)
}
