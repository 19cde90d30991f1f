package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"famsync/internal/google"
	"famsync/internal/ical"
	"famsync/internal/models"
	"famsync/internal/store"
	"famsync/internal/syncer"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "famsync",
		Usage: "Synchronize the family organizer's events with Google Calendar.",
		Commands: []*cli.Command{
			authCommand(),
			calendarsCommand(),
			syncCommand(),
			exportICSCommand(),
			statusCommand(),
			disconnectCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// env reads a variable with a fallback.
func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func accountName() string {
	return env("FAMSYNC_ACCOUNT", "default")
}

func eventsFile() string {
	return env("FAMSYNC_EVENTS_FILE", "events.json")
}

func primaryLocation() (*time.Location, error) {
	tz := env("PRIMARY_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	return loc, nil
}

func newTokenManager(logger *slog.Logger) *google.TokenManager {
	creds := store.NewFileCredentialStore(os.Getenv("FAMSYNC_DATA_DIR"))
	return google.NewTokenManager(logger, google.TokenManagerOptions{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  env("GOOGLE_REDIRECT_URL", "urn:ietf:wg:oauth:2.0:oob"),
		Account:      accountName(),
		Store:        creds,
	})
}

// newEngine wires the token manager, API client and translator together.
func newEngine(c *cli.Context, logger *slog.Logger) (*syncer.Engine, error) {
	loc, err := primaryLocation()
	if err != nil {
		return nil, err
	}

	tokens := newTokenManager(logger)
	client, err := google.NewCalendarClient(c.Context, logger, tokens.TokenSource(c.Context))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	return syncer.NewEngine(logger, tokens, client, google.NewTranslator(loc)), nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate a Google account for calendar sync.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			tokens := newTokenManager(logger)

			authURL, err := tokens.AuthorizationURL()
			if err != nil {
				return err
			}
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			if _, err := tokens.ExchangeCode(c.Context, authCode); err != nil {
				return fmt.Errorf("unable to complete authorization: %w", err)
			}

			logger.Info("Successfully authenticated.", "account", accountName())
			return nil
		},
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List the calendars available to the authenticated account.",
		Action: func(c *cli.Context) error {
			logger := setupLogger(env("LOG_LEVEL", "info"))
			engine, err := newEngine(c, logger)
			if err != nil {
				return err
			}

			calendars, err := engine.GetCalendarList(c.Context)
			if err != nil {
				return fmt.Errorf("failed to list calendars: %w", err)
			}
			for _, cal := range calendars {
				marker := ""
				if cal.Primary {
					marker = " (primary)"
				}
				fmt.Printf("%s\t%s%s\n", cal.ID, cal.Summary, marker)
			}
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run the calendar synchronization process.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "direction", Usage: "Override sync direction: import, export, or both."},
			&cli.StringFlag{Name: "calendars", Usage: "Comma-separated calendar ids to sync with."},
			&cli.IntFlag{Name: "watch", Usage: "Run sync every N seconds instead of once."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger(env("LOG_LEVEL", "info"))
			engine, err := newEngine(c, logger)
			if err != nil {
				return err
			}

			runOnce := func() error {
				ef, err := store.LoadEvents(eventsFile())
				if err != nil {
					return err
				}
				if d := c.String("direction"); d != "" {
					ef.Settings.Direction = models.SyncDirection(d)
				}
				if ids := c.String("calendars"); ids != "" {
					ef.Settings.SelectedCalendarIDs = strings.Split(ids, ",")
				}

				result, err := engine.Sync(c.Context, &ef.Settings, ef.Events)
				if err != nil {
					return err
				}

				ef.Events = append(ef.Events, result.Imported...)
				if err := store.SaveEvents(eventsFile(), ef); err != nil {
					return err
				}

				fmt.Printf("Imported %d, exported %d, updated %d, conflicts %d, errors %d\n",
					result.ImportedCount, result.ExportedCount, result.UpdatedCount,
					len(result.Conflicts), len(result.Errors))
				for _, msg := range result.Errors {
					logger.Error("Sync error", "error", msg)
				}
				for _, conflict := range result.Conflicts {
					logger.Warn("Conflict detected", "type", conflict.Type, "title", conflict.Local.Title)
				}
				return nil
			}

			if c.IsSet("watch") {
				interval, err := watchInterval(c.Int("watch"))
				if err != nil {
					return err
				}
				logger.Info("Starting watcher.", "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for ; true; <-ticker.C {
					if err := runOnce(); err != nil {
						logger.Error("Sync cycle failed", "error", err)
					}
				}
				return nil
			}

			logger.Info("Running a single sync cycle.")
			return runOnce()
		},
	}
}

// watchInterval validates the --watch flag; time.NewTicker panics on a
// non-positive duration.
func watchInterval(seconds int) (time.Duration, error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("watch interval must be at least 1 second, got %d", seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func exportICSCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-ics",
		Usage: "Write the local event collection to an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "famsync.ics", Usage: "Output file path."},
		},
		Action: func(c *cli.Context) error {
			loc, err := primaryLocation()
			if err != nil {
				return err
			}
			ef, err := store.LoadEvents(eventsFile())
			if err != nil {
				return err
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()

			if err := ical.WriteEvents(f, ef.Events, loc); err != nil {
				return err
			}
			fmt.Printf("Wrote %d events to %s\n", len(ef.Events), c.String("out"))
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show authentication and last-sync state.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("error")
			tokens := newTokenManager(logger)
			ef, err := store.LoadEvents(eventsFile())
			if err != nil {
				return err
			}

			fmt.Printf("Account:       %s\n", accountName())
			fmt.Printf("Authenticated: %v\n", tokens.IsAuthenticated())
			fmt.Printf("Direction:     %s\n", ef.Settings.Direction)
			if ef.Settings.LastSyncAt != nil {
				fmt.Printf("Last sync:     %s\n", ef.Settings.LastSyncAt.Format(time.RFC3339))
			} else {
				fmt.Println("Last sync:     never")
			}
			fmt.Printf("Local events:  %d\n", len(ef.Events))
			return nil
		},
	}
}

func disconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Revoke the account's Google credentials and clear them locally.",
		Action: func(c *cli.Context) error {
			logger := setupLogger(env("LOG_LEVEL", "info"))
			tokens := newTokenManager(logger)
			return tokens.Revoke(c.Context)
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
