// Package models содержит доменные структуры пакетов (bundle) и
// возможностей (capability), загружаемых из статического каталога.
package models

// InputKind — вид входных данных, который требуется возможности
// перед запуском анализа.
type InputKind string

const (
	// InputBirthData — дата/время/место рождения для анализов по карте.
	InputBirthData InputKind = "birth_data"
	// InputImageUpload — загрузка изображения определённого вида.
	InputImageUpload InputKind = "image_upload"
	// InputFreeText — свободный текст с заданной целью.
	InputFreeText InputKind = "free_text"
	// InputNone — возможность не требует дополнительных данных.
	InputNone InputKind = "none"
)

// ImageKind уточняет, какое изображение нужно возможности.
type ImageKind string

const (
	ImagePalm        ImageKind = "palm"
	ImageFace        ImageKind = "face"
	ImageHandwriting ImageKind = "handwriting"
)

// Bundle представляет покупаемый пакет: упорядоченный набор
// возможностей и цены по валютам. Структура неизменяемая,
// загружается из каталога, скомпилированного в бинарник.
type Bundle struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Prices          map[string]int `json:"prices"` // Цена в минорных единицах по коду валюты
	BillingInterval string         `json:"billing_interval"`
	Capabilities    []string       `json:"capabilities"` // ID возможностей в порядке каталога
}
