package producers

import "github.com/magabrotheeeer/insight-aggregator/internal/catalog"

// Registry сопоставляет возможность её производителю.
type Registry struct {
	byCapability map[string]Producer
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{byCapability: make(map[string]Producer)}
}

// NewDefaultRegistry регистрирует общий клиент для всех возможностей
// каталога: внешний сервис различает их по пути запроса.
func NewDefaultRegistry(client *Client) *Registry {
	r := NewRegistry()
	for _, capID := range []string{
		catalog.CapNatalChart,
		catalog.CapTransitOutlook,
		catalog.CapPalmReading,
		catalog.CapFaceReading,
		catalog.CapHandwriting,
		catalog.CapTarotSpread,
		catalog.CapIntention,
	} {
		r.Register(capID, client)
	}
	return r
}

// Register привязывает производителя к возможности.
func (r *Registry) Register(capabilityID string, p Producer) {
	r.byCapability[capabilityID] = p
}

// For возвращает производителя возможности.
func (r *Registry) For(capabilityID string) (Producer, bool) {
	p, ok := r.byCapability[capabilityID]
	return p, ok
}
