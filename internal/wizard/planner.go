// Package wizard выводит последовательность шагов сбора данных из
// произвольного пакета и накапливает типизированные ответы по шагам.
// Планирование — чистая функция над декларативной таблицей
// "возможность -> вид входных данных".
package wizard

import (
	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// requirement — строка таблицы требований для одной возможности.
type requirement struct {
	Kind      models.InputKind
	ImageKind models.ImageKind // Только для InputImageUpload
	Purpose   string           // Только для InputFreeText
}

// Таблица требований фиксирована: анализы по карте требуют данных
// рождения, анализы по изображению — загрузки своего вида, анализы по
// намерению — свободного текста. Возможность без требований шаг не даёт.
var inputRequirements = map[string]requirement{
	catalog.CapNatalChart:     {Kind: models.InputBirthData},
	catalog.CapTransitOutlook: {Kind: models.InputBirthData},
	catalog.CapPalmReading:    {Kind: models.InputImageUpload, ImageKind: models.ImagePalm},
	catalog.CapFaceReading:    {Kind: models.InputImageUpload, ImageKind: models.ImageFace},
	catalog.CapHandwriting:    {Kind: models.InputImageUpload, ImageKind: models.ImageHandwriting},
	catalog.CapTarotSpread:    {Kind: models.InputNone},
	catalog.CapIntention:      {Kind: models.InputFreeText, Purpose: "intention"},
}

func stepFor(req requirement) models.WizardStep {
	switch req.Kind {
	case models.InputBirthData:
		return models.WizardStep{ID: "birth-data", Kind: models.InputBirthData}
	case models.InputImageUpload:
		return models.WizardStep{
			ID:        "image-" + string(req.ImageKind),
			Kind:      models.InputImageUpload,
			ImageKind: req.ImageKind,
		}
	case models.InputFreeText:
		return models.WizardStep{
			ID:      "text-" + req.Purpose,
			Kind:    models.InputFreeText,
			Purpose: req.Purpose,
		}
	}
	return models.WizardStep{}
}

// Plan выводит упорядоченный список шагов для пакета: проекция каждой
// возможности на её вид входных данных, с дедупликацией по виду шага
// (две возможности по карте делят один шаг BirthData) и сохранением
// порядка каталога. Пустой список означает, что мастер пропускается и
// синтез идёт сразу с именем и полом по умолчанию.
func Plan(bundle models.Bundle) []models.WizardStep {
	var steps []models.WizardStep
	seen := make(map[string]struct{})

	for _, capID := range bundle.Capabilities {
		req, ok := inputRequirements[capID]
		if !ok || req.Kind == models.InputNone {
			continue
		}
		step := stepFor(req)
		if _, dup := seen[step.ID]; dup {
			continue
		}
		seen[step.ID] = struct{}{}
		steps = append(steps, step)
	}
	return steps
}
