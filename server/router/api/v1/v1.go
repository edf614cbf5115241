package v1

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/backstage/internal/profile"
	"github.com/hrygo/backstage/server/service/assistant"
	appmiddleware "github.com/hrygo/backstage/server/middleware"
	"github.com/hrygo/backstage/store"
)

// Dispatcher answers chat messages.
type Dispatcher interface {
	Handle(ctx context.Context, msg assistant.Message) (*assistant.Reply, error)
	Greet(ctx context.Context, msg assistant.Message) (*assistant.Reply, error)
}

// EventLister reads stored events for the feed exports.
type EventLister interface {
	ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error)
}

// StickerSender delivers the greeting sticker out of band.
type StickerSender interface {
	SendSticker(ctx context.Context, chatID int64, sticker []byte) error
}

type APIV1Service struct {
	Profile    *profile.Profile
	Store      EventLister
	Assistant  Dispatcher
	Metrics    MetricsSource
	Stickers   StickerSender
	Sticker    []byte
	Location   *time.Location
	ExportDays int

	limiter *appmiddleware.RateLimiter
	now     func() time.Time
}

func NewAPIV1Service(profile *profile.Profile, store EventLister, dispatcher Dispatcher) *APIV1Service {
	return &APIV1Service{
		Profile:    profile,
		Store:      store,
		Assistant:  dispatcher,
		Location:   profile.Location(),
		ExportDays: 56,
		limiter:    appmiddleware.NewRateLimiter(),
		now:        time.Now,
	}
}

// Limiter exposes the per-performer message limiter so idle entries can be swept.
func (s *APIV1Service) Limiter() *appmiddleware.RateLimiter {
	return s.limiter
}

// RegisterRoutes mounts the chat, webhook, export and health endpoints.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.GetHealth)

	api := e.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	api.POST("/messages", s.PostMessage)

	feeds := api.Group("/users/:id", s.limiter.Middleware(func(c echo.Context) string {
		return "feed:" + c.Param("id")
	}))
	feeds.GET("/schedule.ics", s.GetScheduleICS)
	feeds.GET("/schedule.rss", s.GetScheduleRSS)

	e.POST("/telegram/webhook", s.PostTelegramWebhook)
}
