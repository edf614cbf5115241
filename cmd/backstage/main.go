package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/backstage/internal/observability"
	"github.com/hrygo/backstage/internal/profile"
	"github.com/hrygo/backstage/internal/version"
	"github.com/hrygo/backstage/server"
	"github.com/hrygo/backstage/store"
	"github.com/hrygo/backstage/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "backstage",
	Short: "A scheduling assistant for opera performers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Telegram webhook.",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		slog.SetDefault(observability.NewLogger(os.Stderr, instanceProfile.IsDev()))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}
		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			_ = storeInstance.Close()
			return fmt.Errorf("failed to migrate: %w", err)
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			_ = storeInstance.Close()
			return fmt.Errorf("failed to create server: %w", err)
		}
		printGreetings(instanceProfile)
		return s.Start(ctx)
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("timezone", profile.DefaultTimezone)
	viper.SetDefault("performer.instrument", profile.DefaultInstrument)
	viper.SetDefault("venue.name", profile.DefaultVenueName)
	viper.SetDefault("venue.playbill_url", profile.DefaultPlaybillURL)
	viper.SetDefault("venue.news_url", profile.DefaultNewsURL)
	viper.SetDefault("venue.refresh_cron", profile.DefaultRefreshCron)
	viper.SetDefault("calendar.id", profile.DefaultCalendarID)
	viper.SetDefault("calendar.reminder_minutes", profile.DefaultReminder)

	// Assigned here rather than in the literal: readConfig refers to rootCmd,
	// which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return readConfig()
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./backstage.yaml)")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("timezone", profile.DefaultTimezone, "IANA timezone for dates and times")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "timezone"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("backstage")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, tokenCmd, calendarCmd)
}

// readConfig loads .env and the optional config file before flags are read.
func readConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if file := rootCmd.PersistentFlags().Lookup("config").Value.String(); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("backstage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:                    viper.GetString("mode"),
		Addr:                    viper.GetString("addr"),
		Port:                    viper.GetInt("port"),
		Data:                    viper.GetString("data"),
		Driver:                  viper.GetString("driver"),
		DSN:                     viper.GetString("dsn"),
		Timezone:                viper.GetString("timezone"),
		Instrument:              viper.GetString("performer.instrument"),
		VenueName:               viper.GetString("venue.name"),
		PlaybillURL:             viper.GetString("venue.playbill_url"),
		NewsURL:                 viper.GetString("venue.news_url"),
		ListingFilter:           viper.GetString("venue.listing_filter"),
		RefreshCron:             viper.GetString("venue.refresh_cron"),
		CalendarEnabled:         viper.GetBool("calendar.enabled"),
		CalendarCredentialsFile: viper.GetString("calendar.credentials_file"),
		CalendarTokenFile:       viper.GetString("calendar.token_file"),
		CalendarID:              viper.GetString("calendar.id"),
		ReminderMinutes:         viper.GetInt("calendar.reminder_minutes"),
		RedisAddr:               viper.GetString("cache.redis_addr"),
		RedisPassword:           viper.GetString("cache.redis_password"),
		RedisDB:                 viper.GetInt("cache.redis_db"),
		TelegramToken:           viper.GetString("telegram.token"),
		TelegramWebhookSecret:   viper.GetString("telegram.webhook_secret"),
		GreetingSticker:         viper.GetString("telegram.greeting_sticker"),
		AuthSecret:              viper.GetString("auth.secret"),
		TLSDomain:               viper.GetString("tls.domain"),
		FeedTimeout:             viper.GetDuration("timeout.feed"),
		CalendarTimeout:         viper.GetDuration("timeout.calendar"),
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func printGreetings(profile *profile.Profile) {
	if profile.IsDev() {
		println("Development mode is enabled")
		println("DSN: ", profile.DSN)
	}
	fmt.Printf(`---
Server profile
version: %s
data: %s
addr: %s
port: %d
mode: %s
driver: %s
timezone: %s
venue: %s
calendar: %t
telegram: %t
---
`, profile.Version, profile.Data, profile.Addr, profile.Port, profile.Mode, profile.Driver,
		profile.Timezone, profile.VenueName, profile.CalendarEnabled, profile.TelegramToken != "")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
