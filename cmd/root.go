package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/config"
	"github.com/coastal-group/tidegate-cli/internal/runlog"
	"github.com/coastal-group/tidegate-cli/internal/workspace"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tidegate-cli",
	Short: "Tidegate flood-impact pipeline",
	Long:  "Masks a DEM at storm-surge and sea-level-rise elevations, traces the flooded area behind each tidegate, and aggregates impacted buildings and wetlands per gate.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initWorkspace builds the run workspace from flags, falling back to the
// configured defaults.
func initWorkspace(cmd *cobra.Command) (*workspace.Workspace, error) {
	dir, _ := cmd.Flags().GetString("workspace")
	if dir == "" {
		dir = cfg.Workspace.Dir
	}
	overwrite := cfg.Workspace.Overwrite
	if cmd.Flags().Changed("overwrite") {
		overwrite, _ = cmd.Flags().GetBool("overwrite")
	}
	return workspace.New(dir, overwrite)
}

// initRunLog opens the configured run log and applies migrations. Relative
// log paths resolve inside the workspace, not the process working directory,
// so every command sharing a workspace sees the same history.
func initRunLog(cmd *cobra.Command, ws *workspace.Workspace) (*runlog.Store, error) {
	st, err := runlog.Open(ws.Resolve(cfg.RunLog.Path))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
