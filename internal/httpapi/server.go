package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-chat/internal/apperr"
	"github.com/fathima-sithara/realtime-chat/internal/attach"
	"github.com/fathima-sithara/realtime-chat/internal/auth"
	"github.com/fathima-sithara/realtime-chat/internal/history"
	"github.com/fathima-sithara/realtime-chat/internal/metrics"
	"github.com/fathima-sithara/realtime-chat/internal/presence"
	"github.com/fathima-sithara/realtime-chat/internal/store"
	"github.com/fathima-sithara/realtime-chat/internal/ws"
)

// Presigner is implemented by blob backends that can hand out direct
// download URLs (S3). The disk backend streams through the server instead.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Server struct {
	store      store.Gateway
	history    *history.Service
	pipeline   *attach.Pipeline
	presigner  Presigner
	presignTTL time.Duration
	presence   *presence.Store
	log        *zap.SugaredLogger
}

type Options struct {
	Store          store.Gateway
	History        *history.Service
	Pipeline       *attach.Pipeline
	Presigner      Presigner
	PresignTTL     time.Duration
	Presence       *presence.Store
	Verifier       *auth.Verifier
	WSHandler      *ws.Handler
	Limiter        *RateLimiter
	RequestTimeout time.Duration
	Log            *zap.SugaredLogger
}

// New assembles the fiber app: REST under /api behind JWT auth, the live
// connection under /ws, health and metrics unauthenticated.
func New(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{BodyLimit: 32 * 1024 * 1024})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if opts.RequestTimeout > 0 {
		app.Use(requestTimeout(opts.RequestTimeout))
	}

	s := &Server{
		store:      opts.Store,
		history:    opts.History,
		pipeline:   opts.Pipeline,
		presigner:  opts.Presigner,
		presignTTL: opts.PresignTTL,
		presence:   opts.Presence,
		log:        opts.Log,
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(opts.WSHandler.Handle))

	api := app.Group("/api", JWTAuth(opts.Verifier))
	if opts.Limiter != nil {
		api.Use(opts.Limiter.Middleware())
	}

	api.Post("/messages/history", s.directHistory)
	api.Get("/channels/:channelId/messages", s.channelHistory)

	api.Get("/contacts/dm", s.dmContacts)
	api.Post("/contacts/search", s.searchContacts)
	api.Get("/contacts/all", s.allContacts)
	api.Get("/contacts/:id/presence", s.contactPresence)

	api.Post("/channels", s.createChannel)
	api.Get("/channels", s.listChannels)

	api.Put("/profile", s.updateProfile)

	api.Post("/files/upload", s.uploadFile)
	api.Get("/files/download", s.downloadFile)
	api.Get("/files/url", s.fileURL)

	return app
}

// requestTimeout bounds every request's user context so store and blob
// calls cannot outlive the request budget. Handlers read c.UserContext().
func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// statusFor maps the error taxonomy to HTTP codes at the boundary.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrTransientIO):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
