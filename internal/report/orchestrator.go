// Package report реализует оркестратор синтеза: раздаёт собранные
// входы производителям всех возможностей пакета и агрегирует их ответы
// в один совокупный отчёт. Контракт: не более одного синтеза на сессию
// одновременно; отказ отдельного производителя не срывает запуск;
// результат запуска, переживший сброс сессии, молча отбрасывается.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/insight-aggregator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/producers"
	"github.com/magabrotheeeer/insight-aggregator/internal/wizard"
)

var (
	// ErrSynthesisInFlight — у сессии уже идёт синтез. Вызывающий
	// трактует это как "уже выполняется", а не как повод повторить.
	ErrSynthesisInFlight = errors.New("synthesis already in flight")
	// ErrStaleSession — сессия была сброшена, пока шёл синтез;
	// результат отброшен.
	ErrStaleSession = errors.New("session reset during synthesis")
	// ErrNoReport — для сессии нет готового отчёта.
	ErrNoReport = errors.New("no report for session")
)

// EpochSource выдаёт номер эпохи сессии (session.Store).
type EpochSource interface {
	Epoch(key string) uint64
}

// ProducerSource выдаёт производителя возможности (producers.Registry).
type ProducerSource interface {
	For(capabilityID string) (producers.Producer, bool)
}

// EventPublisher публикует доменные события (rabbitmq.Publisher).
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Orchestrator — ReportOrchestrator сервиса.
type Orchestrator struct {
	mu        sync.Mutex
	inflight  map[string]struct{}
	completed map[string]*models.CombinedReport

	registry  ProducerSource
	epochs    EpochSource
	publisher EventPublisher
	log       *slog.Logger
}

// NewOrchestrator создаёт оркестратор синтеза.
func NewOrchestrator(registry ProducerSource, epochs EpochSource, publisher EventPublisher, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		inflight:  make(map[string]struct{}),
		completed: make(map[string]*models.CombinedReport),
		registry:  registry,
		epochs:    epochs,
		publisher: publisher,
		log:       log,
	}
}

// Synthesize запускает синтез для пакета и собранных входов.
//
// Второй вызов, пока первый не завершился, отклоняется с
// ErrSynthesisInFlight — запуски не ставятся в очередь и не гоняются.
// Каждая возможность пакета опрашивается независимо; производитель без
// результата лишь исключает свою секцию (политика частичного успеха).
// Запуск помечается эпохой сессии на старте; если к завершению эпоха
// изменилась (например, был logout), результат отбрасывается молча.
func (o *Orchestrator) Synthesize(ctx context.Context, sessionKey string, bundle models.Bundle, inputs models.PackageInputs) (*models.CombinedReport, error) {
	const op = "report.Synthesize"
	log := o.log.With(sl.Op(op), slog.String("bundle_id", bundle.ID))

	o.mu.Lock()
	if _, busy := o.inflight[sessionKey]; busy {
		o.mu.Unlock()
		return nil, ErrSynthesisInFlight
	}
	o.inflight[sessionKey] = struct{}{}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inflight, sessionKey)
		o.mu.Unlock()
	}()

	startEpoch := o.epochs.Epoch(sessionKey)

	var resMu sync.Mutex
	results := make(map[string]models.AnalysisResult)

	g, gctx := errgroup.WithContext(ctx)
	for _, capID := range bundle.Capabilities {
		capID := capID
		producer, ok := o.registry.For(capID)
		if !ok {
			log.Warn("no producer for capability", slog.String("capability", capID))
			producerFailures.WithLabelValues(capID).Inc()
			continue
		}
		g.Go(func() error {
			res, err := producer.Analyze(gctx, wizard.BuildRequest(capID, inputs))
			if err != nil || res == nil {
				// Отказ одной возможности не срывает запуск.
				if err != nil {
					log.Warn("producer failed", slog.String("capability", capID), sl.Err(err))
				}
				producerFailures.WithLabelValues(capID).Inc()
				return nil
			}
			resMu.Lock()
			results[capID] = *res
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if o.epochs.Epoch(sessionKey) != startEpoch {
		log.Info("session reset mid-flight, report discarded")
		synthesisRuns.WithLabelValues("stale").Inc()
		return nil, ErrStaleSession
	}

	combined := &models.CombinedReport{
		ID:               uuid.New().String(),
		BundleID:         bundle.ID,
		Introduction:     buildIntroduction(inputs.Name, bundle, results),
		HolisticGuidance: buildGuidance(results),
		Results:          results,
		CreatedAt:        time.Now().UTC(),
	}

	o.mu.Lock()
	o.completed[sessionKey] = combined
	o.mu.Unlock()

	synthesisRuns.WithLabelValues("ok").Inc()
	if err := o.publisher.Publish(rabbitmq.RoutingReportCompleted, map[string]any{
		"report_id": combined.ID,
		"bundle_id": bundle.ID,
		"sections":  len(results),
	}); err != nil {
		log.Warn("failed to publish report event", sl.Err(err))
	}

	log.Info("synthesis completed",
		slog.Int("sections", len(results)),
		slog.Int("capabilities", len(bundle.Capabilities)))
	return combined, nil
}

// Latest возвращает последний готовый отчёт сессии.
func (o *Orchestrator) Latest(sessionKey string) (*models.CombinedReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	combined, ok := o.completed[sessionKey]
	if !ok {
		return nil, ErrNoReport
	}
	return combined, nil
}

// Discard удаляет готовый отчёт сессии (пользователь закрыл отчёт
// или вышел).
func (o *Orchestrator) Discard(sessionKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.completed, sessionKey)
}

func buildIntroduction(name string, bundle models.Bundle, results map[string]models.AnalysisResult) string {
	who := name
	if who == "" {
		who = "seeker"
	}
	return fmt.Sprintf("%s, this is your %s reading: %d of %d practices responded with guidance.",
		who, bundle.Name, len(results), len(bundle.Capabilities))
}

func buildGuidance(results map[string]models.AnalysisResult) string {
	capIDs := make([]string, 0, len(results))
	for capID := range results {
		capIDs = append(capIDs, capID)
	}
	sort.Strings(capIDs)

	var highlights []string
	for _, capID := range capIDs {
		highlights = append(highlights, results[capID].Highlights...)
	}
	if len(highlights) == 0 {
		return "The practices stayed quiet this time; revisit the reading later."
	}
	return "Across all practices, the common threads are: " + strings.Join(highlights, "; ") + "."
}
