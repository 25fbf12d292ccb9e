package booking

import (
	"context"
	"fmt"
	"time"

	"waypoint/internal/booking/client"
	"waypoint/internal/booking/controller"
	"waypoint/internal/booking/repository"
	"waypoint/internal/booking/usecase"
	"waypoint/internal/config"
	"waypoint/internal/domain"
	"waypoint/internal/identity"
	"waypoint/internal/infrastructure/mysql"
	"waypoint/internal/infrastructure/sqlite"
	"waypoint/internal/notifier"
	"waypoint/internal/payment"
	"waypoint/internal/pricing"
	"waypoint/internal/selection"
	"waypoint/internal/validation"
	"waypoint/internal/wizard"

	"go.uber.org/zap"
)

const draftSaveRetryAttempts = 3

type draftStore interface {
	usecase.DraftRepository
	EnsureSchema(ctx context.Context) error
}

// NewDraftStore opens the draft store named by cfg.Drafts.Driver and makes
// sure its table exists. The returned func closes the underlying connection.
func NewDraftStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (usecase.DraftRepository, func() error, error) {
	var (
		store   draftStore
		closeFn = func() error { return nil }
	)

	switch cfg.Drafts.Driver {
	case "", "memory":
		store = repository.NewMemoryDraftRepository()
	case "mysql":
		db, err := mysql.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = repository.NewMySQLDraftRepository(db, logger, draftSaveRetryAttempts), db.Close
	case "sqlite":
		db, err := sqlite.NewConnection(cfg.Drafts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = repository.NewSQLiteDraftRepository(db), db.Close
	default:
		return nil, nil, fmt.Errorf("unknown draft driver %q", cfg.Drafts.Driver)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("creating draft schema: %w", err)
	}
	logger.Info("draft store ready", zap.String("driver", cfg.Drafts.Driver))
	return store, closeFn, nil
}

func NewModule(cfg *config.Config, drafts usecase.DraftRepository, logger *zap.Logger) (*controller.WizardController, *usecase.WizardUseCase) {
	now := time.Now
	validator := validation.New(now)

	payments := payment.NewRegistry(
		payment.NewCreditCard(validator, now),
		payment.NewBankTransfer(payment.BankDetails{
			BankName:        cfg.Payment.BankName,
			AccountNumber:   cfg.Payment.AccountNumber,
			BeneficiaryName: cfg.Payment.BeneficiaryName,
			ReferencePrefix: cfg.Payment.ReferencePrefix,
			QRCodeRef:       cfg.Payment.BankQRCodeRef,
		}),
		payment.NewVNPay(cfg.Payment.VNPayQRCodeRef),
		payment.NewMoMo(cfg.Payment.MoMoQRCodeRef),
	)

	catalog := client.NewCatalogClient(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.CatalogCacheTTL, logger)
	bookings := client.NewBookingClient(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.MaxRetryAttempts, logger)

	uc := usecase.NewWizardUseCase(
		catalog,
		drafts,
		newNotifier(cfg.Telegram, logger),
		Policies(cfg.Capacity),
		wizard.Deps{
			Calculator: pricing.NewCalculator(cfg.Pricing.TaxRatePercent, cfg.Pricing.ChildPricePercent, domain.ServiceHotel),
			Validator:  validator,
			Payments:   payments,
			Submitter:  bookings,
			Now:        now,
		},
		cfg.Drafts.TTL,
		logger,
	)

	ctrl := controller.NewWizardController(uc, identity.NewParser(cfg.Auth.JWTSecret, now), logger)
	return ctrl, uc
}

// Policies turns the per-flow capacity settings into selection policies.
// Anything other than "advisory" blocks.
func Policies(c config.CapacityConfig) map[domain.ServiceType]selection.Policy {
	policy := func(fc config.FlowCapacity) selection.Policy {
		mode := selection.CapacityBlocking
		if selection.CapacityMode(fc.Policy) == selection.CapacityAdvisory {
			mode = selection.CapacityAdvisory
		}
		return selection.Policy{MaxOccupants: fc.MaxOccupants, CapacityMode: mode}
	}
	return map[domain.ServiceType]selection.Policy{
		domain.ServiceFlight: policy(c.Flight),
		domain.ServiceHotel:  policy(c.Hotel),
		domain.ServiceTour:   policy(c.Tour),
	}
}

func newNotifier(cfg config.TelegramConfig, logger *zap.Logger) usecase.Notifier {
	if cfg.BotToken == "" {
		return notifier.Nop{}
	}
	tg, err := notifier.NewTelegram(cfg.BotToken, cfg.ChatID, logger)
	if err != nil {
		logger.Warn("telegram alerts disabled", zap.Error(err))
		return notifier.Nop{}
	}
	return tg
}
