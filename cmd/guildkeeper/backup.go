package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xela07ax/guildkeeper/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect guild configuration snapshots",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}
		store, err := backup.NewStore(cfg.Backup.Dir)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("%s No backups in %s\n", color.YellowString("!"), cfg.Backup.Dir)
			return nil
		}
		cyan := color.New(color.FgCyan).SprintFunc()
		for _, n := range names {
			fmt.Println(cyan(n))
		}
		return nil
	},
}

var backupShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show a snapshot summary (use --json for the full document)",
	Long: `Show a snapshot. Restoring is manual: use the printed document as the
reference when recreating channels and roles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}
		store, err := backup.NewStore(cfg.Backup.Dir)
		if err != nil {
			return err
		}
		snap, err := store.Load(args[0])
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		bold := color.New(color.Bold).SprintFunc()
		fmt.Printf("%s %s (%s)\n", bold("Guild:"), snap.Guild.Name, snap.Guild.ID)
		fmt.Printf("%s %s\n", bold("Taken:"), snap.Timestamp.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("%s %d\n", bold("Members:"), snap.Guild.MemberCount)
		fmt.Printf("%s %d\n", bold("Channels:"), len(snap.Channels))
		fmt.Printf("%s %d\n", bold("Roles:"), len(snap.Roles))
		return nil
	},
}

func init() {
	backupShowCmd.Flags().Bool("json", false, "print the full snapshot as JSON")
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupShowCmd)
}
