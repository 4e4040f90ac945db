package bot

import (
	"fmt"

	"github.com/i474232898/weather-bot/internal/weather"
)

// Button labels. Inbound text is matched against them exactly.
const (
	LabelNow           = "Погода сейчас"
	LabelYesterday     = "Погода вчера"
	LabelTomorrow      = "Погода завтра"
	LabelWeekly        = "Прогноз на неделю"
	LabelShareLocation = "Отправить местоположение"

	CommandStart = "start"
)

// Reply texts.
const (
	TextGreeting        = "Привет! Я бот для прогноза погоды. Выберите опцию ниже или отправьте местоположение."
	TextLocationSaved   = "Местоположение получено! Теперь выберите опцию: 'Погода сейчас', 'Прогноз на неделю' и другие."
	TextInvalidLocation = "Не удалось распознать координаты. Попробуйте отправить местоположение ещё раз."
	TextNeedLocation    = "Сначала отправьте ваше местоположение!"
	TextWeatherFailed   = "Не удалось получить данные о погоде."
	TextSeriesFailed    = "Не удалось получить данные для прогноза на неделю."
	TextUnknown         = "Не понимаю запрос. Выберите опцию на клавиатуре или отправьте /start."
)

// Button is one key of a reply keyboard.
type Button struct {
	Text            string `json:"text"`
	RequestLocation bool   `json:"requestLocation,omitempty"`
}

// Keyboard is a row-major button layout.
type Keyboard [][]Button

// MainMenu is the keyboard sent with the greeting.
func MainMenu() Keyboard {
	return Keyboard{
		{{Text: LabelNow}, {Text: LabelYesterday}},
		{{Text: LabelTomorrow}, {Text: LabelWeekly}},
		{{Text: LabelShareLocation, RequestLocation: true}},
	}
}

func formatSnapshot(when weather.When, snap weather.Snapshot) string {
	prefix := "Погода"
	switch when {
	case weather.Yesterday:
		prefix = "Погода вчера"
	case weather.Tomorrow:
		prefix = "Погода завтра"
	}
	return fmt.Sprintf("%s: %.1f°C, %s.", prefix, snap.TemperatureC, snap.Description)
}
