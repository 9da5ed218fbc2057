package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xela07ax/guildkeeper/internal/infra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "guildkeeper",
	Short: "Community bot: channel health, audit journal, backups and welcomes",
	Long: `guildkeeper watches Discord servers: it tracks channel activity, scores channel
health and alerts admins, keeps an audit journal, snapshots server configuration
and welcomes new members.

Automation stays disabled until the server owner runs /complete-initial-setup.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(backupCmd)
}

// loadRuntime читает конфиг и собирает логгер для подкоманд
func loadRuntime() (*infra.Config, *zap.Logger, error) {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
