package httpapi

import (
	"context"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-bot/internal/bot"
	"github.com/i474232898/weather-bot/internal/weather"
)

var validate = validator.New()

// Handler is the part of bot.Router the HTTP API drives.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message, out bot.Responder) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, router Handler) {
	v1 := app.Group("/api/v1")

	v1.Post("/sessions/:session/messages", func(c *fiber.Ctx) error {
		var req messageRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		req.Session = c.Params("session")

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		out := &bufferedResponder{}
		if err := router.Handle(c.UserContext(), req.toMessage(), out); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to deliver reply")
		}

		if out.image != nil {
			c.Set(fiber.HeaderContentType, "image/png")
			return c.Send(out.image)
		}
		return c.JSON(messageResponse{Text: out.text, Keyboard: out.keyboard})
	})
}

// messageRequest is the inbound message body.
type messageRequest struct {
	Session  string            `json:"-" validate:"required,max=128"`
	Command  string            `json:"command"`
	Text     string            `json:"text" validate:"max=4096"`
	Location *weather.Location `json:"location"`
}

func (m messageRequest) toMessage() bot.Message {
	return bot.Message{
		SessionID: "http-" + m.Session,
		Command:   strings.TrimPrefix(m.Command, "/"),
		Text:      m.Text,
		Location:  m.Location,
	}
}

type messageResponse struct {
	Text     string       `json:"text"`
	Keyboard bot.Keyboard `json:"keyboard,omitempty"`
}

// bufferedResponder keeps the reply in memory so it can be written as the
// HTTP response. Images are read before the router removes the file.
type bufferedResponder struct {
	text     string
	keyboard bot.Keyboard
	image    []byte
}

func (b *bufferedResponder) SendText(_ context.Context, _ string, text string, kb bot.Keyboard) error {
	b.text = text
	b.keyboard = kb
	return nil
}

func (b *bufferedResponder) SendImage(_ context.Context, _ string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b.image = data
	return nil
}
