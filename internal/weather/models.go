package weather

import (
	"fmt"
	"time"
)

// When selects which moment a single weather reading refers to.
type When int

const (
	Now When = iota
	Yesterday
	Tomorrow
)

func (w When) String() string {
	switch w {
	case Now:
		return "now"
	case Yesterday:
		return "yesterday"
	case Tomorrow:
		return "tomorrow"
	default:
		return fmt.Sprintf("when(%d)", int(w))
	}
}

// Location is a geolocation shared by a user.
// It is replaced wholesale on every new share.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string form, used in logs.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Snapshot is a single weather reading ready for display.
type Snapshot struct {
	TemperatureC float64 `json:"temperatureC"`
	Description  string  `json:"description"`
}

// ForecastPoint is one sample of the multi-point forecast.
// Series are kept in provider (chronological) order.
type ForecastPoint struct {
	Label        string    `json:"label"`
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperatureC"`
}
