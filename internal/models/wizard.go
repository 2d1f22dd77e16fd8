package models

// WizardStep — один шаг сбора данных, выведенный планировщиком из
// пакета. Шаги не сохраняются в хранилище, они каждый раз выводятся
// заново из таблицы требований.
type WizardStep struct {
	ID        string    `json:"id"`
	Kind      InputKind `json:"kind"`
	ImageKind ImageKind `json:"image_kind,omitempty"` // Заполнено только для InputImageUpload
	Purpose   string    `json:"purpose,omitempty"`    // Заполнено только для InputFreeText
}

// BirthData — данные рождения для анализов по карте. Время может быть
// неизвестно, тогда ставится флаг TimeUnknown вместо значения.
type BirthData struct {
	Date        string `json:"date" validate:"required,datetime=02.01.2006"`
	Time        string `json:"time,omitempty"`
	TimeUnknown bool   `json:"time_unknown,omitempty"`
	Place       string `json:"place,omitempty"`
}

// PackageInputs — аккумулятор ответов по шагам мастера. Растёт
// монотонно по мере прохождения шагов; очищается при отмене мастера
// или после завершения синтеза.
type PackageInputs struct {
	Name     string               `json:"name"`
	Gender   string               `json:"gender"`
	Birth    *BirthData           `json:"birth,omitempty"`
	Images   map[ImageKind][]byte `json:"images,omitempty"`
	FreeText map[string]string    `json:"free_text,omitempty"`
}

// StepValue — типизированный ответ на один шаг мастера. Заполняется
// ровно одно поле, соответствующее виду шага.
type StepValue struct {
	Birth *BirthData `json:"birth,omitempty"`
	Image []byte     `json:"image,omitempty"`
	Text  string     `json:"text,omitempty"`
}
