package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autoclocker/internal/config"
	"autoclocker/internal/portal"
	"autoclocker/internal/schedule"
	"autoclocker/internal/session"
	"autoclocker/internal/term"
	"autoclocker/internal/timesheet"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "autoclocker",
	Short: "Timesheet assistant for the workforce portal",
	Long: "autoclocker logs into the web time-and-attendance portal, shows today's clock\n" +
		"table, recommends when to clock out, and can clock you in or out, either\n" +
		"immediately or on a schedule.",
	RunE: runInteractive,
}

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in noninteractively with saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSilentClock(cmd.Context(), session.IntentIn)
	},
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out noninteractively with saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSilentClock(cmd.Context(), session.IntentOut)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// credentials returns the saved portal credentials, prompting for them when
// the config carries none. Prompted credentials are only persisted when save
// is set; the interactive session never writes them back.
func credentials(cfg *config.Config, save bool) (session.Credentials, error) {
	if cfg.Portal.Username != "" && cfg.Portal.Password != "" {
		return session.Credentials{Username: cfg.Portal.Username, Secret: cfg.Portal.Password}, nil
	}

	creds, err := term.PromptCredentials()
	if err != nil {
		return session.Credentials{}, err
	}
	if save {
		fmt.Println("Saving credentials for scheduled use. Note they are stored in plaintext.")
		if err := config.SaveCredentials(creds.Username, creds.Secret); err != nil {
			return session.Credentials{}, fmt.Errorf("saving credentials: %w", err)
		}
	}
	return creds, nil
}

func newClockoutCoordinator(cfg *config.Config, logger *slog.Logger) *schedule.Coordinator {
	var backend schedule.Backend
	if cfg.Scheduler.Mode == "remote" {
		backend = schedule.NewRemoteScheduler(schedule.RemoteConfig{
			Host:      cfg.AWS.Host,
			Endpoint:  cfg.AWS.SchedulerEndpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			DataKey:   cfg.AWS.DataKey,
		}, logger)
	} else {
		backend = schedule.NewLocalScheduler(logger)
	}
	return schedule.NewCoordinator(backend, logger)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fmt.Printf("You are working %.2f hours today.\n", cfg.WorkTarget().Hours())

	creds, err := credentials(cfg, false)
	if err != nil {
		return err
	}

	client, err := portal.NewClient(cfg.Portal.BaseURL, logger)
	if err != nil {
		return err
	}

	orch := session.New(
		session.Config{WorkTarget: cfg.WorkTarget(), Resolution: cfg.Resolution()},
		creds,
		client,
		newClockoutCoordinator(cfg, logger),
		term.NewRenderer(os.Stdout),
		term.NewPrompt(os.Stdin, os.Stdout),
		logger,
	)
	return orch.Run(cmd.Context())
}

// runSilentClock is the scripted entry point the OS scheduler fires: log in,
// submit the clock event, then show the resulting table once.
func runSilentClock(ctx context.Context, intent session.Intent) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	creds, err := credentials(cfg, true)
	if err != nil {
		return err
	}

	client, err := portal.NewClient(cfg.Portal.BaseURL, logger)
	if err != nil {
		return err
	}

	page, err := client.Login(ctx, creds.Username, creds.Secret)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	custID, empID, err := timesheet.ParseIDs(page)
	if err != nil {
		return fmt.Errorf("extracting clock identifiers: %w", err)
	}

	verb := "in"
	if intent == session.IntentOut {
		verb = "out"
	}
	ok, err := session.Execute(ctx, client, custID, empID, intent)
	if err != nil {
		return fmt.Errorf("submitting clock event: %w", err)
	}
	if ok {
		fmt.Printf("You have clocked %s.\n", verb)
		term.Notify("autoclocker", fmt.Sprintf("You have clocked %s.", verb))
	} else {
		fmt.Printf("Error clocking %s.\n", verb)
		term.Notify("autoclocker", fmt.Sprintf("Error clocking %s.", verb))
	}

	page, err = client.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refreshing session: %w", err)
	}
	snap, err := timesheet.Parse(page)
	if err != nil {
		return fmt.Errorf("parsing timesheet: %w", err)
	}

	tt := timesheet.Build(snap, cfg.Resolution())
	sum := timesheet.Summarize(tt, cfg.WorkTarget())
	term.NewRenderer(os.Stdout).Render(tt, sum)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[portal]
base_url = "%s"
username = "%s"
password = "%s"

[hours]
work_hours = %g
resolution_minutes = %d

[scheduler]
mode = "%s"

[aws]
access_key = ""
secret_key = ""
region = ""
host = ""
scheduler_endpoint = ""
data_key = ""
`,
			cfg.Portal.BaseURL,
			cfg.Portal.Username,
			cfg.Portal.Password,
			cfg.Hours.WorkHours,
			cfg.Hours.ResolutionMinutes,
			cfg.Scheduler.Mode,
		)
		if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
