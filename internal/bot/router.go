// Package bot holds the conversation logic: it classifies inbound messages,
// keeps the per-session location up to date, queries the weather service
// and answers through a transport-provided Responder.
package bot

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/weather-bot/internal/chart"
	"github.com/i474232898/weather-bot/internal/weather"
)

// ErrMissingLocation means a weather intent arrived before any location share.
var ErrMissingLocation = errors.New("no location shared in this session")

// Intent is the classified purpose of an inbound message.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentStart
	IntentLocation
	IntentNow
	IntentYesterday
	IntentTomorrow
	IntentWeekly
)

func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentLocation:
		return "location"
	case IntentNow:
		return "now"
	case IntentYesterday:
		return "yesterday"
	case IntentTomorrow:
		return "tomorrow"
	case IntentWeekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Message is a transport-neutral inbound message.
type Message struct {
	SessionID string
	Command   string // without the leading slash
	Text      string
	Location  *weather.Location
}

// Responder delivers replies back through the transport.
type Responder interface {
	SendText(ctx context.Context, sessionID, text string, kb Keyboard) error
	SendImage(ctx context.Context, sessionID, path string) error
}

// WeatherService is the part of weather.Service the router needs.
type WeatherService interface {
	Weather(ctx context.Context, loc weather.Location, when weather.When) (weather.Snapshot, error)
	Series(ctx context.Context, loc weather.Location) ([]weather.ForecastPoint, error)
}

// ChartRenderer renders a forecast series into a file the caller must Close.
type ChartRenderer interface {
	Render(ctx context.Context, sessionID string, series []weather.ForecastPoint) (*chart.Artifact, error)
}

// Classify maps a message to an intent. A location share wins over text.
func Classify(msg Message) Intent {
	if msg.Location != nil {
		return IntentLocation
	}
	if strings.EqualFold(msg.Command, CommandStart) {
		return IntentStart
	}
	switch strings.TrimSpace(msg.Text) {
	case "/" + CommandStart:
		return IntentStart
	case LabelNow:
		return IntentNow
	case LabelYesterday:
		return IntentYesterday
	case LabelTomorrow:
		return IntentTomorrow
	case LabelWeekly:
		return IntentWeekly
	}
	return IntentUnknown
}

// Router turns classified messages into replies.
type Router struct {
	weather  WeatherService
	charts   ChartRenderer
	sessions weather.SessionStore
	validate *validator.Validate
}

func NewRouter(svc WeatherService, charts ChartRenderer, sessions weather.SessionStore) *Router {
	return &Router{
		weather:  svc,
		charts:   charts,
		sessions: sessions,
		validate: validator.New(),
	}
}

// Handle processes one message and sends exactly one reply.
// The returned error only reports a failed delivery.
func (r *Router) Handle(ctx context.Context, msg Message, out Responder) error {
	intent := Classify(msg)

	switch intent {
	case IntentStart:
		return out.SendText(ctx, msg.SessionID, TextGreeting, MainMenu())

	case IntentLocation:
		return r.handleLocation(ctx, msg, out)

	case IntentNow:
		return r.handleWeather(ctx, msg.SessionID, weather.Now, out)
	case IntentYesterday:
		return r.handleWeather(ctx, msg.SessionID, weather.Yesterday, out)
	case IntentTomorrow:
		return r.handleWeather(ctx, msg.SessionID, weather.Tomorrow, out)

	case IntentWeekly:
		return r.handleWeekly(ctx, msg.SessionID, out)

	default:
		log.Printf("INFO: unrecognized message in session %s: %q", msg.SessionID, msg.Text)
		return out.SendText(ctx, msg.SessionID, TextUnknown, nil)
	}
}

func (r *Router) handleLocation(ctx context.Context, msg Message, out Responder) error {
	loc := *msg.Location
	if err := r.validate.Struct(loc); err != nil {
		log.Printf("INFO: rejected location %s in session %s: %v", loc.Key(), msg.SessionID, err)
		return out.SendText(ctx, msg.SessionID, TextInvalidLocation, nil)
	}
	r.sessions.Set(msg.SessionID, loc)
	return out.SendText(ctx, msg.SessionID, TextLocationSaved, nil)
}

func (r *Router) handleWeather(ctx context.Context, sessionID string, when weather.When, out Responder) error {
	loc, err := r.locationFor(sessionID)
	if err != nil {
		return out.SendText(ctx, sessionID, TextNeedLocation, nil)
	}

	snap, err := r.weather.Weather(ctx, loc, when)
	if err != nil {
		log.Printf("ERROR: weather %s for session %s: %v", when, sessionID, err)
		return out.SendText(ctx, sessionID, TextWeatherFailed, nil)
	}
	return out.SendText(ctx, sessionID, formatSnapshot(when, snap), nil)
}

func (r *Router) handleWeekly(ctx context.Context, sessionID string, out Responder) error {
	loc, err := r.locationFor(sessionID)
	if err != nil {
		return out.SendText(ctx, sessionID, TextNeedLocation, nil)
	}

	series, err := r.weather.Series(ctx, loc)
	if err != nil {
		log.Printf("ERROR: forecast series for session %s: %v", sessionID, err)
		return out.SendText(ctx, sessionID, TextSeriesFailed, nil)
	}

	artifact, err := r.charts.Render(ctx, sessionID, series)
	if err != nil {
		log.Printf("ERROR: chart for session %s: %v", sessionID, err)
		return out.SendText(ctx, sessionID, TextSeriesFailed, nil)
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			log.Printf("ERROR: removing chart %s: %v", artifact.Path, err)
		}
	}()

	log.Printf("DEBUG: sending %d-point chart to session %s", artifact.Points, sessionID)
	return out.SendImage(ctx, sessionID, artifact.Path)
}

func (r *Router) locationFor(sessionID string) (weather.Location, error) {
	loc, ok := r.sessions.Get(sessionID)
	if !ok {
		return weather.Location{}, ErrMissingLocation
	}
	return loc, nil
}
