package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Metadata describes the build. It is set at build time via ldflags.
type Metadata struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

var metadata = Metadata{Version: "dev"}

// rootCmd runs an interactive session when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "pbpup",
	Short: "Push plugin builds into a ProBoards forum",
	Long: `pbpup drives a browser through a ProBoards forum's admin panel: it logs in,
opens a plugin's components, and replaces them with your clipboard or the
output of a build command. Answers you give are remembered per configuration.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	rootCmd.PersistentFlags().BoolP("no-color", "", false, "Disable color output")
	rootCmd.PersistentFlags().String("log-level", "info", "Set the session log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for session logs (default: <user cache dir>/pbpup/logs)")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			pterm.DisableStyling()
		}
	}

	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(kernelCmd)
}

func versionString(m Metadata) string {
	v := m.Version
	if m.Commit != "" {
		v += fmt.Sprintf(" (%s)", m.Commit)
	}
	if m.GoVersion != "" {
		v += " " + m.GoVersion
	}
	if m.Date != "" {
		v += " " + m.Date
	}
	return v
}

// Execute runs the root command and exits non-zero on failure.
func Execute(m Metadata) {
	metadata = m
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(versionString(m))); err != nil {
		os.Exit(1)
	}
}
