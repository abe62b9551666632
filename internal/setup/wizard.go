package setup

import (
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/aurum/config"
)

// ErrCancelled is returned when the user declines to save.
var ErrCancelled = errors.New("setup cancelled by user")

// RunWizard walks the user through the client settings and writes them to path.
func RunWizard(path string) error {
	cfg, err := config.Default()
	if err != nil {
		return err
	}

	var (
		baseURL     = cfg.API.BaseURL
		timeout     = cfg.API.Timeout.String()
		merchant    = cfg.Gateway.MerchantName
		degraded    = cfg.Degraded.Enabled
		metricsAddr = cfg.Metrics.Addr
		level       = cfg.Log.Level
		confirm     bool
	)

	clearScreen()
	fmt.Println(Header("AURUM SETUP"))
	fmt.Println(mutedStyle.Render("Connect the gold client to your backend.\n"))

	fmt.Println(stepStyle.Render("STEP 1: BACKEND"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend base URL").
				Description("e.g. https://gold.example.com/api").
				Value(&baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout").
				Description("Duration string (e.g. 10s, 30s)").
				Value(&timeout).
				Validate(validatePositiveDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(Header("AURUM SETUP"))
	fmt.Println(stepStyle.Render("STEP 2: CHECKOUT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Merchant name").
				Description("Shown on the mock checkout").
				Value(&merchant),
			huh.NewConfirm().
				Title("Serve cached or sample data when the backend is down?").
				Affirmative("Yes").
				Negative("No").
				Value(&degraded),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(Header("AURUM SETUP"))
	fmt.Println(stepStyle.Render("STEP 3: OBSERVABILITY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics listen address").
				Description("Leave empty to disable (e.g. :9090)").
				Value(&metricsAddr),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Info", "info"),
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&level),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg.API.BaseURL = baseURL
	cfg.API.Timeout, _ = time.ParseDuration(timeout)
	cfg.Gateway.MerchantName = merchant
	cfg.Degraded.Enabled = degraded
	cfg.Metrics.Addr = metricsAddr
	cfg.Log.Level = level

	clearScreen()
	fmt.Println(Header("AURUM SETUP"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))
	fmt.Println(boxStyle.Render(fmt.Sprintf(
		"Backend: %s\nTimeout: %s\nMerchant: %s\nDegraded mode: %t\nMetrics: %s\nLog level: %s",
		cfg.API.BaseURL, cfg.API.Timeout, cfg.Gateway.MerchantName, cfg.Degraded.Enabled,
		orNone(cfg.Metrics.Addr), cfg.Log.Level,
	)))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return ErrCancelled
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func validatePositiveDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 30s")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
