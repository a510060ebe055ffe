package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-box/internal/store"
	"github.com/i474232898/weather-box/internal/weather"
	"github.com/i474232898/weather-box/internal/widget"
)

var validate = validator.New()

// widgetView is the JSON shape of GET /api/v1/widget.
type widgetView struct {
	Attributes    map[string]string    `json:"attributes"`
	Attached      bool                 `json:"attached"`
	Polling       bool                 `json:"polling"`
	PollPeriodSec int64                `json:"pollPeriodSeconds"`
	Display       weather.DisplayState `json:"display"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Attribute writes
// go through limiter; a nil limiter disables rate limiting.
func RegisterRoutes(app *fiber.App, w *widget.Widget, st store.Store, limiter *rate.Limiter) {
	v1 := app.Group("/api/v1")

	v1.Get("/widget", func(c *fiber.Ctx) error {
		display, err := st.LatestDisplay(c.UserContext())
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read display state")
			}
			display = w.Display()
		}

		polling, period := w.Polling()
		return c.JSON(widgetView{
			Attributes:    w.Attributes(),
			Attached:      w.Attached(),
			Polling:       polling,
			PollPeriodSec: int64(period / time.Second),
			Display:       display,
		})
	})

	v1.Get("/widget/events", func(c *fiber.Ctx) error {
		var req eventsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		events, err := st.Events(c.UserContext(), req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no events for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch events")
		}

		return c.JSON(fiber.Map{
			"from":   req.From,
			"to":     req.To,
			"events": events,
		})
	})

	attrs := v1.Group("/widget/attributes", rateLimit(limiter))

	attrs.Put("/:name", func(c *fiber.Ctx) error {
		var req attributeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Name = c.Params("name")
		if err := req.check(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		w.SetAttribute(req.Name, *req.Value)
		return c.SendStatus(fiber.StatusNoContent)
	})

	attrs.Delete("/:name", func(c *fiber.Ctx) error {
		name := attributeName{Name: c.Params("name")}
		if err := validate.Struct(name); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		w.RemoveAttribute(name.Name)
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/widget/render", func(c *fiber.Ctx) error {
		w.Render()
		return c.SendStatus(fiber.StatusAccepted)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func rateLimit(limiter *rate.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter != nil && !limiter.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attribute changes")
		}
		return c.Next()
	}
}

type attributeName struct {
	Name string `validate:"required,oneof=city background interval"`
}

// attributeRequest is the body of PUT /api/v1/widget/attributes/:name.
type attributeRequest struct {
	Name  string  `json:"-" validate:"required,oneof=city background interval"`
	Value *string `json:"value" validate:"required"`
}

func (r attributeRequest) check() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Name == widget.AttrInterval && *r.Value != "" {
		if _, err := strconv.Atoi(*r.Value); err != nil {
			return errors.New("interval must be a whole number of minutes")
		}
	}
	return nil
}

// eventsQuery holds query parameters for the events endpoint.
type eventsQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q *eventsQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	q.From = from
	q.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
