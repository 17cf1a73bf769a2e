package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initAnswers holds what the setup wizard asks for.
type initAnswers struct {
	// Token is written literally unless TokenFromEnv is set, in which case
	// the file references ${TELEGRAM_TOKEN}.
	Token        string
	TokenFromEnv bool
	Mode         string
	WebhookURL   string
	Bind         string
	Kind         string
	Metrics      bool
}

func defaultAnswers() initAnswers {
	return initAnswers{
		TokenFromEnv: true,
		Mode:         "polling",
		Bind:         "0.0.0.0:8443",
		Kind:         bot.KindImage,
		Metrics:      true,
	}
}

func configInitCmd() *cobra.Command {
	var (
		force bool
		yes   bool
	)
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config init: %s already exists (use --force to overwrite)", path)
			}

			answers := defaultAnswers()
			if !yes {
				if err := askInitAnswers(&answers); err != nil {
					return err
				}
			}

			out, err := renderStarterConfig(answers)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("config init: %w", err)
				}
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return fmt.Errorf("config init: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the wizard and write defaults")
	return cmd
}

// askInitAnswers runs the interactive wizard.
func askInitAnswers(a *initAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Read the bot token from $TELEGRAM_TOKEN?").
				Value(&a.TokenFromEnv),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather, e.g. 123456789:AA...").
				EchoMode(huh.EchoModePassword).
				Value(&a.Token).
				Validate(func(s string) error {
					if !strings.Contains(s, ":") {
						return errors.New("token must look like <id>:<hash>")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return a.TokenFromEnv }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Update delivery").
				Options(
					huh.NewOption("Long polling", "polling"),
					huh.NewOption("Webhook (needs a public HTTPS URL)", "webhook"),
				).
				Value(&a.Mode),
			huh.NewSelect[string]().
				Title("Bot behaviour").
				Options(
					huh.NewOption("Photo filters", bot.KindImage),
					huh.NewOption("Echo text", bot.KindEcho),
					huh.NewOption("Quote replies", bot.KindQuote),
				).
				Value(&a.Kind),
			huh.NewConfirm().
				Title("Expose Prometheus metrics?").
				Value(&a.Metrics),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Public webhook URL").
				Placeholder("https://bot.example.com/webhooks/telegram").
				Value(&a.WebhookURL).
				Validate(validateWebhookURL),
			huh.NewInput().
				Title("Gateway bind address").
				Value(&a.Bind),
		).WithHideFunc(func() bool { return a.Mode != "webhook" }),
	)
	return form.Run()
}

func validateWebhookURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return errors.New("webhook URL must be an absolute https URL")
	}
	return nil
}

// renderStarterConfig produces the YAML written by config init.
func renderStarterConfig(a initAnswers) ([]byte, error) {
	token := "${TELEGRAM_TOKEN}"
	if !a.TokenFromEnv {
		token = a.Token
	}

	telegram := map[string]any{
		"token": token,
		"mode":  a.Mode,
	}
	modules := map[string]any{
		bot.ModuleID: map[string]any{
			"kind":      a.Kind,
			"work_dir":  "photos",
			"normalize": true,
		},
		"channel.telegram": telegram,
	}

	if a.Mode == "webhook" {
		if err := validateWebhookURL(a.WebhookURL); err != nil {
			return nil, fmt.Errorf("config init: %w", err)
		}
		telegram["webhook_url"] = a.WebhookURL
		telegram["webhook_secret"] = "${TELEGRAM_WEBHOOK_SECRET:-}"
	}
	if a.Mode == "webhook" || a.Metrics {
		bind := a.Bind
		if bind == "" {
			bind = defaultAnswers().Bind
		}
		modules["gateway.http"] = map[string]any{"bind": bind}
	}

	doc := map[string]any{
		"version": "1",
		"log":     map[string]any{"level": "info"},
		"telemetry": map[string]any{
			"metrics": a.Metrics,
		},
		"modules": modules,
	}
	return yaml.Marshal(doc)
}
