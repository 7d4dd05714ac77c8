// Command vridge drives the vridge voice service from the terminal: sign
// in, record and synthesize voices, and talk with them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/config"
	"github.com/joho/godotenv"
)

// Environment variables read at startup.
const (
	envConfigPath = "VRIDGE_CONFIG"
)

const (
	bootstrapLogFile = "vridge-bootstrap.log"
	finalLogFile     = "vridge.log"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

// bootstrap loads the configuration with a temporary logger, then opens the
// final logger where the configuration says.
func bootstrap(configPath string) (*config.Config, *logger.Logger, error) {
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = bootstrapLog.Close()
	}()

	if configPath == "" {
		configPath = os.Getenv(envConfigPath)
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(bootstrapLog)
	}

	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(logsDir(cfg), finalLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return nil, nil, err
	}

	return cfg, finalLog, nil
}

func run(args []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newCLI(os.Stdin, os.Stdout, os.Stderr).execute(ctx, args)
}

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "vridge: %v\n", err)
		os.Exit(1)
	}
}
