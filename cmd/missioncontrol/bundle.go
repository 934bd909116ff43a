package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/delivery"
	"github.com/designscozyroom-lab/missioncontrol/internal/policy"
	"github.com/designscozyroom-lab/missioncontrol/internal/repository"
)

// bundle is the wiring shared by every subcommand.
type bundle struct {
	cfg    *policy.Config
	pol    *policy.Policy
	logger *log.Logger
	repo   repository.Repository
	svc    *app.MissionService
}

// openBundle loads config, sets up logging and opens the state repository.
// Long-running commands log to the configured log file; one-shot commands log to stderr only.
func openBundle(flags *rootFlags, longRunning bool) (*bundle, error) {
	tmpLogger := log.New(os.Stderr, "[missioncontrol] ", log.LstdFlags|log.Lshortfile)
	cfg := loadConfig(flags.configPath, tmpLogger)
	if flags.stateFile != "" {
		cfg.StateFile = flags.stateFile
	}
	pol := policy.New(cfg)

	logger := tmpLogger
	if longRunning {
		logger = setupLogger(pol.LogFile())
	}

	repo, err := repository.Open(pol.Database(), pol.StateFile())
	if err != nil {
		return nil, fmt.Errorf("state repository: %w", err)
	}
	return &bundle{
		cfg:    cfg,
		pol:    pol,
		logger: logger,
		repo:   repo,
		svc:    app.NewMissionService(repo, pol, logger),
	}, nil
}

func (b *bundle) close() {
	if err := b.repo.Close(); err != nil {
		b.logger.Printf("Warning: close state repository: %v", err)
	}
}

// deliverer builds the configured deliverer.
func (b *bundle) deliverer() (delivery.Deliverer, error) {
	d, err := delivery.New(b.pol.Delivery(), b.logger)
	if err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	return d, nil
}

// loadConfig loads policy configuration from path or defaults, then applies the environment.
func loadConfig(path string, logger *log.Logger) *policy.Config {
	cfg := policy.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = policy.LoadConfig(path)
		if err != nil {
			logger.Printf("Warning: failed to load config %s: %v, using defaults", path, err)
			cfg = policy.DefaultConfig()
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg
}

// setupLogger creates a logger that writes to a log file and optionally stderr.
// When stderr is a terminal (interactive use), logs go to both stderr and the file.
// When stderr is redirected (daemon mode via nohup), logs go only to the file.
func setupLogger(logFilePath string) *log.Logger {
	var writers []io.Writer

	stderrIsTerminal := false
	if info, err := os.Stderr.Stat(); err == nil {
		stderrIsTerminal = (info.Mode() & os.ModeCharDevice) != 0
	}

	hasLogFile := false
	lower := strings.ToLower(logFilePath)
	if lower != "none" && lower != "off" && logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err == nil {
			f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				writers = append(writers, f)
				hasLogFile = true
			} else {
				fmt.Fprintf(os.Stderr, "[missioncontrol] Warning: cannot open log file %s: %v\n", logFilePath, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "[missioncontrol] Warning: cannot create log dir %s: %v\n", filepath.Dir(logFilePath), err)
		}
	}

	// Always keep at least one output.
	if stderrIsTerminal || !hasLogFile {
		writers = append(writers, os.Stderr)
	}

	return log.New(io.MultiWriter(writers...), "[missioncontrol] ", log.LstdFlags|log.Lshortfile)
}
