package models

import "time"

// AnalysisRequest — запрос к производителю анализа для одной
// возможности, собранный из PackageInputs.
type AnalysisRequest struct {
	CapabilityID string     `json:"capability_id"`
	Name         string     `json:"name"`
	Gender       string     `json:"gender"`
	Birth        *BirthData `json:"birth,omitempty"`
	Image        []byte     `json:"image,omitempty"`
	Text         string     `json:"text,omitempty"`
}

// AnalysisResult — структурированный ответ производителя. Отсутствие
// результата (nil) означает отказ производителя; ошибкой это не
// считается, секция просто не попадает в итоговый отчёт.
type AnalysisResult struct {
	CapabilityID string   `json:"capability_id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Highlights   []string `json:"highlights,omitempty"`
}

// CombinedReport — совокупный отчёт по всем возможностям пакета.
// Строится один раз за успешный (в том числе частично успешный)
// запуск синтеза и после возврата не изменяется.
type CombinedReport struct {
	ID               string                    `json:"id"`
	BundleID         string                    `json:"bundle_id"`
	Introduction     string                    `json:"introduction"`
	HolisticGuidance string                    `json:"holistic_guidance"`
	Results          map[string]AnalysisResult `json:"results"` // Ключ — ID возможности
	CreatedAt        time.Time                 `json:"created_at"`
}
