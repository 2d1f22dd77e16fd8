// Package catalog содержит статический реестр покупаемых пакетов.
// Каталог компилируется в бинарник и никогда не загружается извне,
// поэтому у операций нет режимов отказа.
package catalog

import "github.com/magabrotheeeer/insight-aggregator/internal/models"

// ID возможностей, известных сервису. Порядок внутри пакета — это
// порядок каталога, его сохраняет планировщик мастера.
const (
	CapNatalChart     = "natal-chart"
	CapTransitOutlook = "transit-outlook"
	CapPalmReading    = "palm-reading"
	CapFaceReading    = "face-reading"
	CapHandwriting    = "handwriting-analysis"
	CapTarotSpread    = "tarot-spread"
	CapIntention      = "intention-insight"
)

var bundles = []models.Bundle{
	{
		ID:              "cosmic-seeker",
		Name:            "Cosmic Seeker",
		Prices:          map[string]int{"RUB": 79900, "USD": 999},
		BillingInterval: "one_time",
		Capabilities:    []string{CapNatalChart, CapTransitOutlook, CapPalmReading},
	},
	{
		ID:              "inner-compass",
		Name:            "Inner Compass",
		Prices:          map[string]int{"RUB": 59900, "USD": 799},
		BillingInterval: "one_time",
		Capabilities:    []string{CapTarotSpread, CapIntention},
	},
	{
		ID:              "full-spectrum",
		Name:            "Full Spectrum",
		Prices:          map[string]int{"RUB": 129900, "USD": 1599},
		BillingInterval: "one_time",
		Capabilities: []string{
			CapNatalChart, CapTransitOutlook, CapPalmReading,
			CapFaceReading, CapHandwriting, CapTarotSpread, CapIntention,
		},
	},
	{
		ID:              "daily-draw",
		Name:            "Daily Draw",
		Prices:          map[string]int{"RUB": 19900, "USD": 299},
		BillingInterval: "one_time",
		Capabilities:    []string{CapTarotSpread},
	},
}

// ByID возвращает пакет по его ID и признак наличия в каталоге.
func ByID(id string) (models.Bundle, bool) {
	for _, b := range bundles {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bundle{}, false
}

// All возвращает все пакеты в порядке каталога.
func All() []models.Bundle {
	out := make([]models.Bundle, len(bundles))
	copy(out, bundles)
	return out
}
