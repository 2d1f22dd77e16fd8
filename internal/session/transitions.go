package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// ErrInvalidTransition возвращается при попытке перехода, которого нет
// в таблице: это ошибка программирования вызывающего кода, а не
// состояние, из которого нужно восстанавливаться.
var ErrInvalidTransition = errors.New("invalid entitlement transition")

// WizardService запускает и отменяет мастер сбора данных.
type WizardService interface {
	StartForBundle(sessionKey string, bundle models.Bundle, name, gender string) []models.WizardStep
	Cancel(sessionKey string)
}

// ReportDiscarder отбрасывает готовый отчёт сессии (report.Orchestrator).
type ReportDiscarder interface {
	Discard(sessionKey string)
}

// EventPublisher публикует доменные события (rabbitmq.Publisher).
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Transitions — единственный код, которому разрешено двигать tier.
// Три перехода, каждый привязан к своему внешнему событию:
// регистрация, подтверждение оплаты, выход.
type Transitions struct {
	store     *Store
	wizard    WizardService
	reports   ReportDiscarder
	publisher EventPublisher
	log       *slog.Logger
}

// NewTransitions создаёт переходы поверх SessionStore.
func NewTransitions(store *Store, wizard WizardService, reports ReportDiscarder, publisher EventPublisher, log *slog.Logger) *Transitions {
	return &Transitions{
		store:     store,
		wizard:    wizard,
		reports:   reports,
		publisher: publisher,
		log:       log,
	}
}

// OnRegister выполняет переход Guest -> Trial после локальной
// регистрации. bundleID — пакет, ради которого пользователь
// регистрировался (может быть пустым); он запоминается, чтобы пробный
// период был сразу привязан к выбранному пакету.
func (t *Transitions) OnRegister(ctx context.Context, key, name, email, gender, bundleID string) error {
	const op = "session.OnRegister"

	current := t.store.Current(key)
	if current.Tier != models.TierGuest {
		return ErrInvalidTransition
	}

	if err := t.store.ApplyOptimistic(ctx, key, models.TierTrial, name, email, gender); err != nil {
		return err
	}
	if bundleID != "" {
		if _, ok := catalog.ByID(bundleID); ok {
			t.store.setPendingBundle(key, bundleID)
		}
	}
	t.log.Info("session advanced to trial", sl.Op(op), slog.String("email", email))
	return nil
}

// OnPurchaseConfirmed выполняет переход Guest/Trial -> FullAccess после
// подтверждения платёжного шлюза. Если был отложенный пакет, он сразу
// превращается в активный мастер для того же пакета — повторный выбор
// не требуется.
func (t *Transitions) OnPurchaseConfirmed(ctx context.Context, key string) error {
	const op = "session.OnPurchaseConfirmed"

	current := t.store.Current(key)
	if current.Tier == models.TierFullAccess {
		return ErrInvalidTransition
	}

	if err := t.store.ApplyOptimistic(ctx, key, models.TierFullAccess,
		current.Name, current.Email, current.Gender); err != nil {
		return err
	}

	pendingID := t.store.takePendingBundle(key)
	if pendingID != "" {
		if bundle, ok := catalog.ByID(pendingID); ok {
			t.wizard.StartForBundle(key, bundle, current.Name, current.Gender)
			t.log.Info("pending bundle promoted to active wizard",
				sl.Op(op), slog.String("bundle_id", bundle.ID))
		}
	}

	if err := t.publisher.Publish(rabbitmq.RoutingPurchaseConfirmed, map[string]any{
		"email":     current.Email,
		"bundle_id": pendingID,
	}); err != nil {
		t.log.Warn("failed to publish purchase event", sl.Op(op), sl.Err(err))
	}
	return nil
}

// OnLogout выполняет переход любого tier -> Guest и очищает всё
// производное состояние сессии: отложенный пакет, активный мастер,
// готовый отчёт. Рост эпохи в Reconcile отбрасывает и результаты
// синтеза, которые ещё в полёте.
func (t *Transitions) OnLogout(ctx context.Context, key string) error {
	t.wizard.Cancel(key)
	t.reports.Discard(key)
	return t.store.Reconcile(ctx, key, IdentityEvent{Kind: SignedOut})
}

// SelectBundle запоминает пакет, выбранный пользователем перед оплатой,
// чтобы подтверждение платежа сразу открыло мастер для него. Это не
// переход tier, только выбор.
func (t *Transitions) SelectBundle(key, bundleID string) error {
	if _, ok := catalog.ByID(bundleID); !ok {
		return fmt.Errorf("unknown bundle: %s", bundleID)
	}
	t.store.setPendingBundle(key, bundleID)
	return nil
}
