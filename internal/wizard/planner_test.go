package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name         string
		capabilities []string
		wantStepIDs  []string
	}{
		{
			name:         "две возможности по карте делят один шаг",
			capabilities: []string{catalog.CapNatalChart, catalog.CapTransitOutlook},
			wantStepIDs:  []string{"birth-data"},
		},
		{
			name: "шаги идут в порядке каталога",
			capabilities: []string{
				catalog.CapNatalChart, catalog.CapTransitOutlook, catalog.CapPalmReading,
				catalog.CapFaceReading, catalog.CapHandwriting, catalog.CapTarotSpread,
				catalog.CapIntention,
			},
			wantStepIDs: []string{
				"birth-data", "image-palm", "image-face",
				"image-handwriting", "text-intention",
			},
		},
		{
			name:         "пакет без требований даёт пустой план",
			capabilities: []string{catalog.CapTarotSpread},
			wantStepIDs:  nil,
		},
		{
			name:         "неизвестная возможность пропускается",
			capabilities: []string{"mystery-capability", catalog.CapIntention},
			wantStepIDs:  []string{"text-intention"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := models.Bundle{ID: "test", Capabilities: tt.capabilities}
			steps := Plan(bundle)

			var ids []string
			for _, s := range steps {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantStepIDs, ids)
		})
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	bundle, found := catalog.ByID("full-spectrum")
	require.True(t, found)

	first := Plan(bundle)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Plan(bundle))
	}
}
