package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/backstage/plugin/assistant/timeout"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where backstage stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Timezone is the IANA zone every date and clock time is interpreted in.
	Timezone string

	// Instrument is assumed for performers who never set their own.
	Instrument string

	// Venue
	VenueName     string
	PlaybillURL   string
	NewsURL       string
	ListingFilter string // CEL expression over title, hall, kind, date
	RefreshCron   string

	// External calendar
	CalendarEnabled         bool
	CalendarCredentialsFile string
	CalendarTokenFile       string
	CalendarID              string
	ReminderMinutes         int

	// Optional second-level cache for pending suggestions.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Chat transport
	TelegramToken         string
	TelegramWebhookSecret string
	GreetingSticker       string

	// AuthSecret signs calendar feed tokens.
	AuthSecret string
	// TLSDomain enables autocert when set.
	TLSDomain string

	FeedTimeout     time.Duration
	CalendarTimeout time.Duration
}

const (
	DefaultTimezone    = "Europe/Moscow"
	DefaultInstrument  = "фагот"
	DefaultVenueName   = "Геликон-опера"
	DefaultPlaybillURL = "https://www.helikon.ru/ru/playbill"
	DefaultNewsURL     = "https://www.helikon.ru/ru/news/"
	DefaultRefreshCron = "*/30 * * * *"
	DefaultCalendarID  = "primary"
	DefaultReminder    = 180
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Location loads the configured timezone. Validate must have succeeded first.
func (p *Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "backstage")
		} else {
			p.Data = "/var/opt/backstage"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "":
		p.Driver = "sqlite"
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("backstage_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a dsn")
	}

	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %s", p.Timezone)
	}

	if p.Instrument == "" {
		p.Instrument = DefaultInstrument
	}
	if p.VenueName == "" {
		p.VenueName = DefaultVenueName
	}
	if p.PlaybillURL == "" {
		p.PlaybillURL = DefaultPlaybillURL
	}
	if p.NewsURL == "" {
		p.NewsURL = DefaultNewsURL
	}
	if p.RefreshCron == "" {
		p.RefreshCron = DefaultRefreshCron
	}
	if p.CalendarID == "" {
		p.CalendarID = DefaultCalendarID
	}
	if p.ReminderMinutes <= 0 {
		p.ReminderMinutes = DefaultReminder
	}
	if p.CalendarEnabled {
		if p.CalendarCredentialsFile == "" {
			p.CalendarCredentialsFile = filepath.Join(dataDir, "credentials.json")
		}
		if p.CalendarTokenFile == "" {
			p.CalendarTokenFile = filepath.Join(dataDir, "token.json")
		}
	}
	if p.FeedTimeout <= 0 {
		p.FeedTimeout = timeout.FeedTimeout
	}
	if p.CalendarTimeout <= 0 {
		p.CalendarTimeout = timeout.CalendarTimeout
	}
	if p.Mode == "prod" && p.AuthSecret == "" {
		return errors.New("auth secret is required in prod mode")
	}

	return nil
}
