package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mindchat/mindchat/internal/app"
	"github.com/mindchat/mindchat/internal/config"
	"github.com/mindchat/mindchat/internal/logging"
)

var (
	profileFlag string
	logCloser   io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mindchat",
	Short: "Terminal client for a supportive chat companion",
	Long: `mindchat is a terminal client for a mental-health chat service.
It waits for the service to finish loading, keeps the conversation on screen
and shows support resources when a message signals a crisis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the chat application
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runApp(cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "profile to use instead of the active one")

	// Add subcommands
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(askCmd)
}

// loadConfig loads the config file and applies the --profile override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if profileFlag != "" {
		if err := cfg.UseProfile(profileFlag); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setupLogging() error {
	dir, err := config.HomeDir()
	if err != nil {
		return errors.Wrap(err, "failed to resolve home directory")
	}
	level := config.DefaultLogLevel
	if cfg, err := loadConfig(); err == nil {
		level = cfg.Current().GetLogLevel()
	}
	closer, err := logging.Setup(level, filepath.Join(dir, "mindchat.log"))
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func runApp(cfg *config.Config) error {
	application, err := app.NewApplication(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create application")
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		return errors.Wrap(err, "application error")
	}
	return nil
}
