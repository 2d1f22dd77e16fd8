package wizard

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestManager_StartReplacesPreviousRun(t *testing.T) {
	m := NewManager(newNoopLogger())
	first, _ := catalog.ByID("cosmic-seeker")
	second, _ := catalog.ByID("inner-compass")

	m.StartForBundle("key-1", first, "Mira", "female")
	m.StartForBundle("key-1", second, "Mira", "female")

	run, ok := m.Active("key-1")
	require.True(t, ok)
	assert.Equal(t, "inner-compass", run.BundleID)
}

func TestManager_AdvanceWithoutRun(t *testing.T) {
	m := NewManager(newNoopLogger())

	err := m.Advance("key-1", "birth-data", models.StepValue{})
	assert.ErrorIs(t, err, ErrNoActiveWizard)
}

func TestManager_FinalizeKeepsRunUntilClear(t *testing.T) {
	m := NewManager(newNoopLogger())
	bundle, _ := catalog.ByID("daily-draw") // пустой план, мастер сразу завершён

	steps := m.StartForBundle("key-1", bundle, "Mira", "female")
	assert.Empty(t, steps)

	bundleID, inputs, err := m.Finalize("key-1")
	require.NoError(t, err)
	assert.Equal(t, "daily-draw", bundleID)
	assert.Equal(t, "Mira", inputs.Name)

	// Финализация не закрывает мастер: входы можно забрать повторно,
	// пока синтез их не принял.
	_, _, err = m.Finalize("key-1")
	require.NoError(t, err)

	m.Clear("key-1")
	_, _, err = m.Finalize("key-1")
	assert.ErrorIs(t, err, ErrNoActiveWizard)
}

func TestManager_CancelDropsCollectedInputs(t *testing.T) {
	m := NewManager(newNoopLogger())
	bundle, _ := catalog.ByID("inner-compass")

	m.StartForBundle("key-1", bundle, "Mira", "female")
	require.NoError(t, m.Advance("key-1", "text-intention", models.StepValue{Text: "clarity"}))

	m.Cancel("key-1")

	_, ok := m.Active("key-1")
	assert.False(t, ok)
	_, _, err := m.Finalize("key-1")
	assert.ErrorIs(t, err, ErrNoActiveWizard)
}

func TestBuildRequest(t *testing.T) {
	inputs := models.PackageInputs{
		Name:   "Mira",
		Gender: "female",
		Birth:  &models.BirthData{Date: "12.05.1990", Time: "08:30", Place: "Samara"},
		Images: map[models.ImageKind][]byte{
			models.ImagePalm: []byte("palm-bytes"),
		},
		FreeText: map[string]string{"intention": "clarity"},
	}

	t.Run("возможность по карте получает только данные рождения", func(t *testing.T) {
		req := BuildRequest(catalog.CapNatalChart, inputs)
		assert.NotNil(t, req.Birth)
		assert.Empty(t, req.Image)
		assert.Empty(t, req.Text)
	})

	t.Run("возможность по изображению получает свой вид изображения", func(t *testing.T) {
		req := BuildRequest(catalog.CapPalmReading, inputs)
		assert.Equal(t, []byte("palm-bytes"), req.Image)
		assert.Nil(t, req.Birth)
	})

	t.Run("возможность по намерению получает свой текст", func(t *testing.T) {
		req := BuildRequest(catalog.CapIntention, inputs)
		assert.Equal(t, "clarity", req.Text)
	})

	t.Run("возможность без требований получает только имя и пол", func(t *testing.T) {
		req := BuildRequest(catalog.CapTarotSpread, inputs)
		assert.Equal(t, "Mira", req.Name)
		assert.Nil(t, req.Birth)
		assert.Empty(t, req.Image)
		assert.Empty(t, req.Text)
	})
}
