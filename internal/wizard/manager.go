package wizard

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// ErrNoActiveWizard — у сессии нет запущенного мастера.
var ErrNoActiveWizard = errors.New("no active wizard for session")

// Run — активный мастер одной сессии.
type Run struct {
	BundleID  string
	Steps     []models.WizardStep
	Collector *Collector
}

// Manager держит по одному активному мастеру на сессию.
type Manager struct {
	mu   sync.Mutex
	runs map[string]*Run
	log  *slog.Logger
}

// NewManager создаёт менеджер мастеров.
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		runs: make(map[string]*Run),
		log:  log,
	}
}

// StartForBundle планирует шаги для пакета и открывает мастер сессии,
// заменяя предыдущий, если он был. Пустой план — мастер сразу завершён
// и синтез может идти с именем и полом по умолчанию.
func (m *Manager) StartForBundle(sessionKey string, bundle models.Bundle, name, gender string) []models.WizardStep {
	steps := Plan(bundle)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[sessionKey] = &Run{
		BundleID:  bundle.ID,
		Steps:     steps,
		Collector: NewCollector(name, gender, steps),
	}
	m.log.Info("wizard started",
		slog.String("bundle_id", bundle.ID), slog.Int("steps", len(steps)))
	return steps
}

// Active возвращает активный мастер сессии.
func (m *Manager) Active(sessionKey string) (*Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[sessionKey]
	return run, ok
}

// Advance передаёт ответ на шаг активному мастеру сессии.
func (m *Manager) Advance(sessionKey, stepID string, value models.StepValue) error {
	m.mu.Lock()
	run, ok := m.runs[sessionKey]
	m.mu.Unlock()
	if !ok {
		return ErrNoActiveWizard
	}
	return run.Collector.Advance(stepID, value)
}

// Cancel отменяет мастер сессии, отбрасывая все собранные входы.
func (m *Manager) Cancel(sessionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, sessionKey)
}

// Finalize возвращает пакет и собранные входы завершённого мастера.
// Мастер остаётся открытым: вызывающий очищает его через Clear после
// того, как синтез принял входы (отклонённый повторный запуск не
// должен терять собранное).
func (m *Manager) Finalize(sessionKey string) (string, models.PackageInputs, error) {
	m.mu.Lock()
	run, ok := m.runs[sessionKey]
	m.mu.Unlock()
	if !ok {
		return "", models.PackageInputs{}, ErrNoActiveWizard
	}

	inputs, err := run.Collector.Finalize()
	if err != nil {
		return "", models.PackageInputs{}, err
	}
	return run.BundleID, inputs, nil
}

// Clear закрывает мастер сессии после успешного завершения синтеза.
func (m *Manager) Clear(sessionKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, sessionKey)
}
