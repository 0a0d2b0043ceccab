// Package server exposes the batch processor over HTTP.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// New builds the Fiber app with every route registered. The body limit follows
// the handler's archive limit.
func New(h *BatchHandler, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             int(h.maxBytes) + 1<<20, // headroom for multipart framing
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
			return Error(c, status, err.Error())
		},
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))

	Register(app, h)
	return app
}

// Register wires all HTTP routes onto the given Fiber app.
func Register(app *fiber.App, h *BatchHandler) {
	v1 := app.Group("/api/v1")
	v1.Get("/health", Health)
	v1.Post("/batches", h.Analyze)
}

// Health reports liveness.
func Health(c *fiber.Ctx) error {
	return JSON(c, fiber.StatusOK, fiber.Map{"status": "ok"})
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
