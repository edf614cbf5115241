package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/backstage/plugin/gcal"
	apiv1 "github.com/hrygo/backstage/server/router/api/v1"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a feed or message token for a performer.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		scope, _ := cmd.Flags().GetString("scope")
		if userID == 0 {
			return fmt.Errorf("--user is required")
		}
		audience := apiv1.FeedTokenAudience
		switch scope {
		case "feed":
		case "messages":
			audience = apiv1.MessageTokenAudience
		default:
			return fmt.Errorf("unknown scope %q, want feed or messages", scope)
		}
		token, err := apiv1.SignToken(viper.GetString("auth.secret"), audience, userID, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(token)
		if scope == "feed" {
			fmt.Fprintf(os.Stderr, "feeds: /api/v1/users/%d/schedule.ics?token=...  /api/v1/users/%d/schedule.rss?token=...\n", userID, userID)
		} else {
			fmt.Fprintln(os.Stderr, "send as: Authorization: Bearer <token> to POST /api/v1/messages")
		}
		return nil
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage the Google Calendar connection.",
}

var calendarLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorise access to Google Calendar and store the token.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}
		credentials := viper.GetString("calendar.credentials_file")
		if credentials == "" {
			credentials = filepath.Join(instanceProfile.Data, "credentials.json")
		}
		tokenFile := viper.GetString("calendar.token_file")
		if tokenFile == "" {
			tokenFile = filepath.Join(instanceProfile.Data, "token.json")
		}

		login, err := gcal.NewLogin(credentials)
		if err != nil {
			return err
		}
		fmt.Println("Open this link in a browser and paste the authorisation code below:")
		fmt.Println(login.URL("backstage"))
		fmt.Print("code: ")

		code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && code == "" {
			return fmt.Errorf("failed to read authorisation code: %w", err)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := login.Exchange(ctx, strings.TrimSpace(code), tokenFile); err != nil {
			return err
		}
		fmt.Println("token saved to", tokenFile)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64("user", 0, "performer id (Telegram user id)")
	tokenCmd.Flags().Duration("ttl", 720*time.Hour, "token lifetime")
	tokenCmd.Flags().String("scope", "feed", `token scope, "feed" or "messages"`)
	calendarCmd.AddCommand(calendarLoginCmd)
}
