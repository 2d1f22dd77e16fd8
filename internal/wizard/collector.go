package wizard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	// Регистрация декодеров для проверки загружаемых изображений.
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

var (
	// ErrWizardFinished — попытка шагнуть после завершения всех шагов.
	ErrWizardFinished = errors.New("wizard already finished")
	// ErrUnexpectedStep — ответ пришёл не на текущий шаг.
	ErrUnexpectedStep = errors.New("unexpected wizard step")
	// ErrWizardIncomplete — попытка финализации до прохождения всех шагов.
	ErrWizardIncomplete = errors.New("wizard is not complete")
)

// ValidationError — локальная ошибка заполнения шага. Она блокирует
// продвижение мастера и никогда не доходит до оркестратора.
type ValidationError struct {
	StepID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %s", e.StepID, e.Reason)
}

// Collector накапливает ответы по шагам, выведенным планировщиком.
// Ответы проверяются по виду шага; отмена на любом шаге отбрасывает
// всё собранное.
type Collector struct {
	steps    []models.WizardStep
	idx      int
	inputs   models.PackageInputs
	validate *validator.Validate
}

// NewCollector создаёт аккумулятор для списка шагов. Имя и пол известны
// из сессии и попадают во входы сразу.
func NewCollector(name, gender string, steps []models.WizardStep) *Collector {
	return &Collector{
		steps: steps,
		inputs: models.PackageInputs{
			Name:   name,
			Gender: gender,
		},
		validate: validator.New(),
	}
}

// CurrentStep возвращает текущий шаг; false — все шаги пройдены.
func (c *Collector) CurrentStep() (models.WizardStep, bool) {
	if c.idx >= len(c.steps) {
		return models.WizardStep{}, false
	}
	return c.steps[c.idx], true
}

// Done сообщает, что все шаги пройдены.
func (c *Collector) Done() bool {
	return c.idx >= len(c.steps)
}

// Advance принимает ответ на шаг stepID. Ответ на чужой шаг или шаг
// после завершения — ошибка контракта; непройденная валидация —
// *ValidationError.
func (c *Collector) Advance(stepID string, value models.StepValue) error {
	step, ok := c.CurrentStep()
	if !ok {
		return ErrWizardFinished
	}
	if step.ID != stepID {
		return ErrUnexpectedStep
	}

	switch step.Kind {
	case models.InputBirthData:
		if err := c.checkBirth(step, value.Birth); err != nil {
			return err
		}
		c.inputs.Birth = value.Birth

	case models.InputImageUpload:
		if err := checkImage(step, value.Image); err != nil {
			return err
		}
		if c.inputs.Images == nil {
			c.inputs.Images = make(map[models.ImageKind][]byte)
		}
		c.inputs.Images[step.ImageKind] = value.Image

	case models.InputFreeText:
		text := strings.TrimSpace(value.Text)
		if text == "" {
			return &ValidationError{StepID: step.ID, Reason: "text must not be empty"}
		}
		if c.inputs.FreeText == nil {
			c.inputs.FreeText = make(map[string]string)
		}
		c.inputs.FreeText[step.Purpose] = text
	}

	c.idx++
	return nil
}

func (c *Collector) checkBirth(step models.WizardStep, birth *models.BirthData) error {
	if birth == nil {
		return &ValidationError{StepID: step.ID, Reason: "birth data is required"}
	}
	if err := c.validate.Struct(birth); err != nil {
		return &ValidationError{StepID: step.ID, Reason: "date must be in format 02.01.2006"}
	}
	// Время либо указано, либо явно помечено неизвестным.
	if birth.Time == "" && !birth.TimeUnknown {
		return &ValidationError{StepID: step.ID, Reason: "time must be set or marked unknown"}
	}
	return nil
}

func checkImage(step models.WizardStep, payload []byte) error {
	if len(payload) == 0 {
		return &ValidationError{StepID: step.ID, Reason: "image payload is required"}
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(payload)); err != nil {
		return &ValidationError{StepID: step.ID, Reason: "image payload is not decodable"}
	}
	return nil
}

// Finalize возвращает собранные входы после прохождения всех шагов.
func (c *Collector) Finalize() (models.PackageInputs, error) {
	if !c.Done() {
		return models.PackageInputs{}, ErrWizardIncomplete
	}
	return c.inputs, nil
}
