package session

import "github.com/magabrotheeeer/insight-aggregator/internal/models"

// Decision — решение NavigationGuard для запрошенной возможности.
type Decision string

const (
	// DecisionAllow — возможность доступна напрямую.
	DecisionAllow Decision = "allow"
	// DecisionPreview — гостю показывается образец вывода без
	// расходования доступа.
	DecisionPreview Decision = "preview"
	// DecisionRequireUpgrade зарезервировано: в базовом алгоритме эта
	// ветка не достигается, давление на покупку происходит в точке
	// оплаты пакета, а не при навигации. Пробный доступ открывает все
	// отдельные инструменты; платой закрыт только совокупный отчёт,
	// который проходит через OnPurchaseConfirmed.
	DecisionRequireUpgrade Decision = "require_upgrade"
)

// Возможности, открытые всем независимо от tier.
var openCapabilities = map[string]struct{}{
	"home":        {},
	"catalog":     {},
	"guided-tour": {},
}

// Decide возвращает решение для пары сессия + возможность.
func Decide(session models.UserSession, capabilityID string) Decision {
	if _, ok := openCapabilities[capabilityID]; ok {
		return DecisionAllow
	}
	if session.Tier == models.TierGuest {
		return DecisionPreview
	}
	return DecisionAllow
}
