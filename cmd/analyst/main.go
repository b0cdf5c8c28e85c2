package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"portfolio-analyst/internal/cli"
	"portfolio-analyst/internal/config"
	"portfolio-analyst/internal/logging"
)

func main() {
	// Local development overrides; absence is not an error.
	_ = godotenv.Load()

	configDir := configDirFlag(os.Args[1:])
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirFlag extracts --config before cobra parses flags, so the config
// is loaded once and handed to the command tree.
func configDirFlag(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}
