// Package assistant turns one inbound chat message into one reply: it
// classifies the text, runs the matching schedule operation and renders the
// answer in Russian.
package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/backstage/internal/observability"
	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/assistant/router"
	"github.com/hrygo/backstage/plugin/assistant/session"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
	apperrors "github.com/hrygo/backstage/server/internal/errors"
	"github.com/hrygo/backstage/server/service/schedule"
	"github.com/hrygo/backstage/store"
)

// UserStore registers performers as they write in.
type UserStore interface {
	UpsertUser(ctx context.Context, upsert *store.User) (*store.User, error)
}

// NewsSource returns the venue's latest news items, newest first.
type NewsSource interface {
	News(ctx context.Context, limit int) ([]string, error)
}

// Config holds the venue-specific wording and limits of the dispatcher.
type Config struct {
	VenueName   string
	NewsHeading string
	// Instrument is used for performers who have not stored their own.
	Instrument      string
	ReminderMinutes int
	NewsLimit       int
	FeedTimeout     time.Duration
	LockWait        time.Duration
}

const defaultVenueName = "Геликон-опера"

func (c *Config) normalize() {
	if c.VenueName == "" {
		c.VenueName = defaultVenueName
	}
	if c.NewsHeading == "" {
		c.NewsHeading = newsHeading(c.VenueName)
	}
	if c.ReminderMinutes <= 0 {
		c.ReminderMinutes = 180
	}
	if c.NewsLimit <= 0 {
		c.NewsLimit = 5
	}
	if c.FeedTimeout <= 0 {
		c.FeedTimeout = timeout.FeedTimeout
	}
	if c.LockWait <= 0 {
		c.LockWait = timeout.LockWaitTimeout
	}
}

// newsHeading names the news list after the venue. Only the default venue has
// a hand-declined genitive; other names are quoted as given.
func newsHeading(venue string) string {
	if venue == defaultVenueName {
		return "Новости «Геликон-оперы»"
	}
	return "Новости театра «" + venue + "»"
}

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	Users        UserStore
	Resolver     *chrono.Resolver
	Classifier   *router.Classifier
	Reconciler   *schedule.Reconciler
	Synchronizer *schedule.Synchronizer
	Pending      session.PendingStore
	News         NewsSource
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// Message is one inbound chat message.
type Message struct {
	UserID      int64
	DisplayName string
	Text        string
	// RequestID is generated when empty.
	RequestID string
}

// Reply is the answer to one message.
type Reply struct {
	Text      string      `json:"reply"`
	Command   router.Kind `json:"command"`
	Rule      string      `json:"rule,omitempty"`
	Outcome   string      `json:"outcome,omitempty"`
	RequestID string      `json:"request_id"`
}

// Service dispatches classified messages. Messages of one performer are
// handled one at a time.
type Service struct {
	deps  Dependencies
	cfg   Config
	locks *ownerLocks
}

func NewService(deps Dependencies, cfg Config) *Service {
	cfg.normalize()
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}
	return &Service{deps: deps, cfg: cfg, locks: newOwnerLocks()}
}

// Metrics exposes the dispatcher counters.
func (s *Service) Metrics() *observability.Metrics {
	return s.deps.Metrics
}

// Greet registers the performer and returns the welcome text.
func (s *Service) Greet(ctx context.Context, msg Message) (*Reply, error) {
	reqCtx := observability.NewRequestContextWithID(s.deps.Logger, msg.RequestID, msg.UserID)
	reply := &Reply{Text: greetingText, Command: "greeting", RequestID: reqCtx.RequestID}
	if _, err := s.deps.Users.UpsertUser(ctx, &store.User{ID: msg.UserID, DisplayName: msg.DisplayName}); err != nil {
		reqCtx.Error("failed to register performer", err)
		return reply, apperrors.Internal("failed to register performer", err)
	}
	return reply, nil
}

// Handle answers one message. It always returns a reply; a non-nil error
// reports the internal failure hidden behind an apology.
func (s *Service) Handle(ctx context.Context, msg Message) (*Reply, error) {
	reqCtx := observability.NewRequestContextWithID(s.deps.Logger, msg.RequestID, msg.UserID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	reply, err := s.handle(ctx, reqCtx, msg)
	if err != nil {
		reqCtx.Error("message failed", err, slog.Int(observability.LogFieldMessageLen, len(msg.Text)))
		reply.Text = apologyText
	} else {
		reqCtx.Info("message handled",
			slog.String("rule", reply.Rule),
			slog.String(observability.LogFieldOutcome, reply.Outcome),
		)
	}
	reply.RequestID = reqCtx.RequestID

	kind := string(reply.Command)
	if kind == "" {
		kind = "none"
	}
	s.deps.Metrics.RecordRequest(kind, reqCtx.Duration(), err != nil)
	if reply.Outcome != "" {
		s.deps.Metrics.RecordOutcome(reply.Outcome)
	}
	return reply, err
}

func (s *Service) handle(ctx context.Context, reqCtx *observability.RequestContext, msg Message) (*Reply, error) {
	reply := &Reply{}

	release, err := s.locks.acquire(ctx, msg.UserID, s.cfg.LockWait)
	if err != nil {
		return reply, apperrors.Internal("timed out waiting for previous message", err)
	}
	defer release()

	user, err := s.deps.Users.UpsertUser(ctx, &store.User{ID: msg.UserID, DisplayName: msg.DisplayName})
	if err != nil {
		return reply, apperrors.Internal("failed to register performer", err)
	}
	instrument := user.Instrument
	if instrument == "" {
		instrument = s.cfg.Instrument
	}

	hasPending := false
	suggestion, err := s.deps.Pending.Load(ctx, msg.UserID)
	if err != nil {
		reqCtx.Warn("failed to load pending suggestion", slog.String("error", err.Error()))
	} else {
		hasPending = suggestion != nil && len(suggestion.Candidates) > 0
	}

	cmd, rule := s.deps.Classifier.Explain(msg.Text, hasPending)
	reqCtx.SetCommand(string(cmd.Kind))
	reply.Command = cmd.Kind
	reply.Rule = rule
	reqCtx.Debug("message classified", slog.String("rule", rule))

	err = s.dispatch(ctx, reply, cmd, msg.UserID, instrument)
	return reply, err
}

func (s *Service) dispatch(ctx context.Context, reply *Reply, cmd router.Command, ownerID int64, instrument string) error {
	switch cmd.Kind {
	case router.KindAddEvent:
		result, err := s.deps.Synchronizer.Add(ctx, ownerID, &store.Event{
			Title:     cmd.Title,
			Date:      cmd.Date.String(),
			StartTime: cmd.StartTime,
			EndTime:   cmd.EndTime,
			Hall:      cmd.Hall,
			Kind:      cmd.EventKind,
			Role:      schedule.Role(instrument),
		})
		if err != nil {
			return err
		}
		reply.Outcome = string(result.Outcome)
		reply.Text = s.addReply(result)

	case router.KindDeleteEvent:
		result, err := s.deps.Synchronizer.Delete(ctx, ownerID, cmd.Title, cmd.Date.String())
		if err != nil {
			return err
		}
		reply.Outcome = string(result.Outcome)
		reply.Text = deleteReply(result)

	case router.KindQueryCurrentWeek, router.KindQueryNextWeek:
		next := cmd.Kind == router.KindQueryNextWeek
		result, err := s.deps.Reconciler.QueryWeek(ctx, ownerID, s.week(next))
		if err != nil {
			return err
		}
		reply.Text = s.personalWeekReply(result, next)

	case router.KindQueryVenueCurrentWeek, router.KindQueryVenueNextWeek:
		next := cmd.Kind == router.KindQueryVenueNextWeek
		result, err := s.deps.Reconciler.QueryVenueWeek(ctx, s.week(next))
		if err != nil {
			return err
		}
		reply.Text = s.venueWeekReply(result, next)

	case router.KindConfirmPending:
		batch, err := s.deps.Synchronizer.ConfirmPending(ctx, ownerID, schedule.Role(instrument))
		if apperrors.IsCode(err, apperrors.ErrCodeStateMiss) {
			reply.Command = router.KindClarify
			reply.Text = nothingToAdd
			return nil
		}
		if err != nil {
			return err
		}
		reply.Outcome = string(batchOutcome(batch))
		reply.Text = s.confirmReply(batch)

	case router.KindNewsRequest:
		reply.Text = s.news(ctx)

	case router.KindConductorRequest:
		reply.Text = conductorReply(cmd)

	case router.KindClarify:
		reply.Text = clarification(cmd.Reason)

	default:
		reply.Text = helpText
	}
	return nil
}

func (s *Service) week(next bool) chrono.Week {
	if next {
		return s.deps.Resolver.NextWeek()
	}
	return s.deps.Resolver.CurrentWeek()
}

func (s *Service) news(ctx context.Context) string {
	if s.deps.News == nil {
		return newsFailed
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()
	items, err := s.deps.News.News(ctx, s.cfg.NewsLimit)
	if err != nil {
		observability.LoggerFrom(ctx).Warn("news unavailable", slog.String("error", err.Error()))
		return newsFailed
	}
	return s.newsReply(items)
}

// batchOutcome summarizes a confirmation: synced only when every item was.
func batchOutcome(batch *schedule.BatchResult) schedule.Outcome {
	n := len(batch.Results)
	switch {
	case batch.Count(schedule.OutcomeSynced) == n:
		return schedule.OutcomeSynced
	case batch.Count(schedule.OutcomeUnavailable) == n:
		return schedule.OutcomeUnavailable
	case len(batch.Written()) == 0:
		return schedule.OutcomeFailed
	default:
		return schedule.OutcomeLocalOnly
	}
}
