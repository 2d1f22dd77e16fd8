// Package session содержит единственный источник правды о пользователе:
// SessionStore хранит текущую сессию каждого клиента, сверяет её с
// колбэками провайдера идентификации и зеркалит в долговременное
// хранилище и кеш снапшотов. Уровень доступа (tier) меняется только
// внутри этого пакета: EntitlementTransitions — единственный писатель
// со стороны бизнес-событий, Reconcile — со стороны провайдера.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// IdentityEventKind — вид события провайдера идентификации.
type IdentityEventKind string

const (
	// SignedIn — провайдер сообщил о входе пользователя.
	SignedIn IdentityEventKind = "signed_in"
	// SignedOut — провайдер сообщил о выходе пользователя.
	SignedOut IdentityEventKind = "signed_out"
)

// IdentityEvent — событие провайдера идентификации. Провайдер знает
// email и отображаемое имя, но не уровень доступа.
type IdentityEvent struct {
	Kind        IdentityEventKind
	Email       string
	DisplayName string
}

// RecordRepository описывает долговременное зеркало сессий по email.
type RecordRepository interface {
	// GetSessionRecord возвращает запись; false — записи нет или она нечитаема.
	GetSessionRecord(ctx context.Context, email string) (*models.PersistedSessionRecord, bool, error)
	// UpsertSessionRecord сохраняет запись по email.
	UpsertSessionRecord(ctx context.Context, record models.PersistedSessionRecord) error
}

// SnapshotCache описывает кеш последних известных сессий для
// восстановления после перезагрузки.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, sessionKey string, session models.UserSession) error
	DropSnapshot(ctx context.Context, sessionKey string) error
}

// state — всё изменяемое состояние одной сессии.
type state struct {
	session         models.UserSession
	epoch           uint64 // Растёт при каждом сбросе; метит запуски синтеза
	pendingBundleID string // Пакет, выбранный до регистрации/покупки
	subscribers     []func(models.UserSession)
}

// Store — SessionStore: текущее состояние всех сессий сервиса.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*state
	repo      RecordRepository
	snapshots SnapshotCache
	log       *slog.Logger
}

// NewStore создаёт SessionStore поверх зеркального хранилища и кеша.
func NewStore(repo RecordRepository, snapshots SnapshotCache, log *slog.Logger) *Store {
	return &Store{
		sessions:  make(map[string]*state),
		repo:      repo,
		snapshots: snapshots,
		log:       log,
	}
}

// получить состояние сессии, создав гостевое при первом обращении
func (s *Store) stateLocked(key string) *state {
	st, ok := s.sessions[key]
	if !ok {
		st = &state{session: models.GuestSession()}
		s.sessions[key] = st
	}
	return st
}

// Current возвращает текущую сессию; для неизвестного ключа — гостя.
func (s *Store) Current(key string) models.UserSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(key).session
}

// Epoch возвращает номер эпохи сессии. Запуск синтеза запоминает
// эпоху на старте и сбрасывает результат, если она изменилась.
func (s *Store) Epoch(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(key).epoch
}

// PendingBundle возвращает ID пакета, выбранного до регистрации/покупки.
func (s *Store) PendingBundle(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(key).pendingBundleID
}

// Subscribe регистрирует подписчика на изменения сессии.
func (s *Store) Subscribe(key string, fn func(models.UserSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(key)
	st.subscribers = append(st.subscribers, fn)
}

// setPendingBundle запоминает выбранный пакет; вызывается только
// переходами из этого же пакета.
func (s *Store) setPendingBundle(key, bundleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(key).pendingBundleID = bundleID
}

// takePendingBundle забирает и очищает отложенный пакет.
func (s *Store) takePendingBundle(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(key)
	id := st.pendingBundleID
	st.pendingBundleID = ""
	return id
}

func notify(subs []func(models.UserSession), session models.UserSession) {
	for _, fn := range subs {
		fn(session)
	}
}

// Reconcile сверяет сессию с событием провайдера идентификации.
//
// Вход: ищем зеркальную запись по email; нашли — принимаем её tier и
// gender, не нашли (или запись нечитаема) — это первый вход, tier
// становится Trial и запись создаётся. Колбэк провайдера — источник
// правды, но повторная доставка того же события идемпотентна и
// никогда не понижает tier.
//
// Выход: сброс к гостю, очистка отложенного пакета, рост эпохи
// (результаты синтеза, стартовавшего до выхода, будут отброшены).
func (s *Store) Reconcile(ctx context.Context, key string, ev IdentityEvent) error {
	const op = "session.Reconcile"
	log := s.log.With(sl.Op(op), slog.String("session_key", key))

	switch ev.Kind {
	case SignedOut:
		s.mu.Lock()
		st := s.stateLocked(key)
		st.session = models.GuestSession()
		st.pendingBundleID = ""
		st.epoch++
		subs := append([]func(models.UserSession){}, st.subscribers...)
		current := st.session
		s.mu.Unlock()

		if err := s.snapshots.DropSnapshot(ctx, key); err != nil {
			log.Warn("failed to drop session snapshot", sl.Err(err))
		}
		notify(subs, current)
		return nil

	case SignedIn:
		record, found, err := s.repo.GetSessionRecord(ctx, ev.Email)
		if err != nil {
			// Нечитаемое зеркало — не фатальная ошибка: идём путём первого входа.
			log.Warn("session record lookup failed, treating as absent", sl.Err(err))
			found = false
		}

		adopted := models.UserSession{
			Tier:  models.TierTrial,
			Name:  ev.DisplayName,
			Email: ev.Email,
		}
		if found {
			adopted.Tier = record.Tier
			adopted.Gender = record.Gender
			if record.Name != "" {
				adopted.Name = record.Name
			}
		}

		s.mu.Lock()
		st := s.stateLocked(key)
		// Оптимистичное состояние той же личности не понижается:
		// повторный колбэк идемпотентен по построению.
		if st.session.Email == ev.Email && st.session.Tier.Rank() > adopted.Tier.Rank() {
			adopted.Tier = st.session.Tier
		}
		if st.session.Email == ev.Email && adopted.Gender == "" {
			adopted.Gender = st.session.Gender
		}
		st.session = adopted
		subs := append([]func(models.UserSession){}, st.subscribers...)
		s.mu.Unlock()

		if !found {
			fresh := models.PersistedSessionRecord{
				Name:   adopted.Name,
				Email:  adopted.Email,
				Tier:   adopted.Tier,
				Gender: adopted.Gender,
			}
			if err := s.repo.UpsertSessionRecord(ctx, fresh); err != nil {
				log.Warn("failed to persist first-time session record", sl.Err(err))
			}
		}
		if err := s.snapshots.SaveSnapshot(ctx, key, adopted); err != nil {
			log.Warn("failed to save session snapshot", sl.Err(err))
		}
		notify(subs, adopted)
		return nil
	}
	return nil
}

// ApplyOptimistic выставляет состояние сессии сразу после локальной
// регистрации или входа, до асинхронного колбэка провайдера.
// Зеркальная запись обновляется тут же, чтобы перезагрузка до колбэка
// оставалась согласованной.
func (s *Store) ApplyOptimistic(ctx context.Context, key string, tier models.Tier, name, email, gender string) error {
	const op = "session.ApplyOptimistic"
	log := s.log.With(sl.Op(op), slog.String("session_key", key))

	next := models.UserSession{Tier: tier, Name: name, Email: email, Gender: gender}

	s.mu.Lock()
	st := s.stateLocked(key)
	st.session = next
	subs := append([]func(models.UserSession){}, st.subscribers...)
	s.mu.Unlock()

	record := models.PersistedSessionRecord{Name: name, Email: email, Tier: tier, Gender: gender}
	if err := s.repo.UpsertSessionRecord(ctx, record); err != nil {
		log.Warn("failed to mirror optimistic session", sl.Err(err))
	}
	if err := s.snapshots.SaveSnapshot(ctx, key, next); err != nil {
		log.Warn("failed to save session snapshot", sl.Err(err))
	}
	notify(subs, next)
	return nil
}
