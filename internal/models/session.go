// Package models содержит доменную модель пользовательской сессии:
// уровень доступа (tier), данные пользователя и зеркальную запись,
// сохраняемую в хранилище для восстановления после перезагрузки.
package models

// Tier определяет уровень доступа пользователя к инструментам сервиса.
type Tier string

const (
	// TierGuest — гость без регистрации, доступен только предпросмотр.
	TierGuest Tier = "guest"
	// TierTrial — зарегистрированный пользователь на пробном периоде.
	TierTrial Tier = "trial"
	// TierFullAccess — пользователь, оплативший пакет.
	TierFullAccess Tier = "full_access"
)

// Rank возвращает порядковый номер уровня для проверки,
// что переходы идут только вперёд (кроме logout).
func (t Tier) Rank() int {
	switch t {
	case TierGuest:
		return 0
	case TierTrial:
		return 1
	case TierFullAccess:
		return 2
	}
	return -1
}

// Valid сообщает, что значение tier — одно из трёх допустимых.
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// UserSession представляет текущее состояние сессии пользователя.
// Поле Tier меняется только пакетом session (единственный писатель).
type UserSession struct {
	Tier   Tier   // Уровень доступа
	Name   string // Отображаемое имя пользователя
	Email  string // Электронная почта (ключ зеркальной записи)
	Gender string // Пол, используется производителями анализов
}

// GuestSession возвращает сессию по умолчанию: гость без данных.
func GuestSession() UserSession {
	return UserSession{Tier: TierGuest}
}

// PersistedSessionRecord — долговременное зеркало UserSession, ключом
// служит email. По нему восстанавливается tier после перезагрузки,
// когда провайдер идентификации сообщает о возвращении пользователя,
// но не знает его уровень доступа.
type PersistedSessionRecord struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tier   Tier   `json:"tier"`
	Gender string `json:"gender"`
}
