// Command studyplansrv runs the studyplan HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/charmlog"
)

var (
	configPath string
	envFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "studyplansrv",
	Short: "Study planner API server",
	Long: `studyplansrv serves the study planner REST API.

Configuration is read from an optional YAML file, a .env file, and
STUDYPLAN_* environment variables, in increasing order of precedence.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a dotenv file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (studyplan.Config, error) {
	cfg, err := studyplan.LoadConfig(studyplan.LoadOptions{
		ConfigPath: configPath,
		EnvFile:    envFile,
	})
	if err != nil {
		return studyplan.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger returns the logger and a func closing its log file.
func newLogger(cfg studyplan.Config) (studyplan.Logger, func() error, error) {
	w, closeFn, err := charmlog.OpenFile(cfg.Log.Path)
	if err != nil {
		return nil, nil, err
	}
	return charmlog.NewLogger(charmlog.Options{
		Writer: w,
		Level:  cfg.Log.Level,
		Prefix: "studyplansrv",
	}), closeFn, nil
}
