// Package server wires the assistant together and runs the HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/backstage/internal/observability"
	"github.com/hrygo/backstage/internal/profile"
	"github.com/hrygo/backstage/plugin/assistant/cache"
	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/assistant/router"
	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
	"github.com/hrygo/backstage/plugin/gcal"
	"github.com/hrygo/backstage/plugin/playbill"
	"github.com/hrygo/backstage/plugin/telegram"
	apiv1 "github.com/hrygo/backstage/server/router/api/v1"
	"github.com/hrygo/backstage/server/service/assistant"
	"github.com/hrygo/backstage/server/service/schedule"
	"github.com/hrygo/backstage/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	refresher  *playbill.Refresher
	telegram   *telegram.Client
	closers    []func()
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Store:   store,
		Profile: profile,
	}
	logger := observability.NewLogger(os.Stderr, profile.IsDev())
	loc := profile.Location()

	memory := cache.NewMemory(cache.DefaultMemoryConfig())
	s.closers = append(s.closers, memory.Close)
	var l2 cache.CacheService
	if profile.RedisAddr != "" {
		redis, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:      profile.RedisAddr,
			Password:  profile.RedisPassword,
			DB:        profile.RedisDB,
			KeyPrefix: "backstage:",
		})
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache only", "addr", profile.RedisAddr, "error", err)
		} else {
			l2 = redis
			s.closers = append(s.closers, func() { _ = redis.Close() })
		}
	}
	caches := newCaches(memory, l2)

	filter, err := playbill.NewFilter(profile.ListingFilter)
	if err != nil {
		return nil, errors.Wrap(err, "invalid listing filter")
	}
	feed := playbill.NewClient(playbill.Config{
		PlaybillURL: profile.PlaybillURL,
		NewsURL:     profile.NewsURL,
		Timeout:     profile.FeedTimeout,
	}, caches.listings, filter)

	s.refresher, err = playbill.NewRefresher(profile.RefreshCron, loc, profile.FeedTimeout, func(ctx context.Context) error {
		_, err := feed.Refresh(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	calendar, err := newCalendar(ctx, profile)
	if err != nil {
		return nil, err
	}

	pending := session.NewPendingStore(caches.pending, timeout.PendingTTL)
	resolver := chrono.NewResolver(loc)
	metrics := observability.NewMetrics()
	dispatcher := assistant.NewService(assistant.Dependencies{
		Users:      store,
		Resolver:   resolver,
		Classifier: router.NewClassifier(resolver, router.DefaultConductors()),
		Reconciler: schedule.NewReconciler(store, feed, pending, profile.FeedTimeout),
		Synchronizer: schedule.NewSynchronizer(store, calendar, pending, schedule.SynchronizerConfig{
			Location:        loc,
			Instrument:      profile.Instrument,
			CalendarTimeout: profile.CalendarTimeout,
		}),
		Pending: pending,
		News:    feed,
		Metrics: metrics,
		Logger:  logger,
	}, assistant.Config{
		VenueName:       profile.VenueName,
		Instrument:      profile.Instrument,
		ReminderMinutes: profile.ReminderMinutes,
		FeedTimeout:     profile.FeedTimeout,
	})

	s.apiService = apiv1.NewAPIV1Service(profile, store, dispatcher)
	s.apiService.Metrics = metrics
	if profile.TelegramToken != "" {
		s.telegram = telegram.NewClient(telegram.Config{Token: profile.TelegramToken})
		s.apiService.Stickers = s.telegram
		if profile.GreetingSticker != "" {
			sticker, err := telegram.LoadSticker(profile.GreetingSticker)
			if err != nil {
				slog.Warn("greeting sticker unavailable", "path", profile.GreetingSticker, "error", err)
			} else {
				s.apiService.Sticker = sticker
			}
		}
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	s.apiService.RegisterRoutes(echoServer)
	s.echoServer = echoServer

	slog.Info("server configured",
		"mode", profile.Mode,
		"driver", profile.Driver,
		"timezone", loc.String(),
		"playbill", feed.String(),
		"calendar", fmt.Sprintf("%T", calendar),
	)
	return s, nil
}

type caches struct {
	listings cache.CacheService
	pending  cache.CacheService
}

// newCaches puts the parsed playbill behind the optional shared tier. Pending
// suggestions stay in process memory and do not survive a restart.
func newCaches(memory *cache.Memory, l2 cache.CacheService) caches {
	c := caches{listings: memory, pending: memory}
	if l2 != nil {
		c.listings = cache.NewTiered(memory, l2)
	}
	return c
}

// newCalendar picks the calendar backend: Google when configured, an
// in-process calendar outside prod, and a disabled one otherwise.
func newCalendar(ctx context.Context, profile *profile.Profile) (schedule.Calendar, error) {
	switch {
	case profile.CalendarEnabled:
		google, err := gcal.NewGoogle(ctx, gcal.Config{
			CredentialsFile: profile.CalendarCredentialsFile,
			TokenFile:       profile.CalendarTokenFile,
			CalendarID:      profile.CalendarID,
			Timezone:        profile.Timezone,
			ReminderMinutes: profile.ReminderMinutes,
			Timeout:         profile.CalendarTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create google calendar")
		}
		return google, nil
	case profile.Mode != "prod":
		return gcal.NewMemory(), nil
	default:
		return gcal.Disabled{}, nil
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.refresher.RunNow(ctx); err != nil {
		slog.Warn("initial playbill refresh failed", "error", err)
	}
	s.refresher.Start()
	slog.Info("playbill refresh scheduled", "next", s.refresher.Next())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.serve()
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := s.apiService.Limiter().Sweep(); n > 0 {
					slog.Debug("swept idle rate limiters", "count", n)
				}
			}
		}
	})
	if s.telegram != nil && s.Profile.TLSDomain != "" {
		g.Go(func() error {
			url := "https://" + s.Profile.TLSDomain + "/telegram/webhook"
			if err := s.telegram.SetWebhook(ctx, url, s.Profile.TelegramWebhookSecret); err != nil {
				slog.Warn("failed to register telegram webhook", "url", url, "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
		return nil
	})
	return g.Wait()
}

func (s *Server) serve() error {
	var err error
	if s.Profile.TLSDomain != "" {
		s.echoServer.AutoTLSManager = autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.Profile.TLSDomain),
			Cache:      autocert.DirCache(filepath.Join(s.Profile.Data, "certs")),
		}
		slog.Info("serving with automatic TLS", "domain", s.Profile.TLSDomain)
		err = s.echoServer.StartAutoTLS(":443")
	} else {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		slog.Info("serving", "address", address)
		err = s.echoServer.Start(address)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server stopped")
	}
	return nil
}

// Shutdown stops the listener, the refresh schedule and the caches, then
// closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.refresher.Stop(ctx)
	for _, closeFn := range s.closers {
		closeFn()
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("backstage stopped properly")
}
