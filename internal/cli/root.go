// Package cli implements the monorel command surface. Commands register
// themselves on the root command in their init functions; Execute runs the
// root command and prints structured errors.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/logging"
)

// Command group IDs for help output.
const (
	// GroupRelease holds the commands that move a package forward.
	GroupRelease = "release"
	// GroupInspection holds the read-only commands.
	GroupInspection = "inspection"
)

var (
	configFlag   string
	logLevelFlag string
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "monorel",
	Short: "Release bookkeeping for multi-package repositories",
	Long: `monorel decides when a package deserves a new semantic version and keeps
its changelog in step with the git history.

Each package owns one release-tag series: "v1.2.3" for the repository root,
"api-v1.2.3" for a package named api. monorel classifies the commits since
the latest tag of a series, computes the next version from their combined
severity (breaking > feature > fix), and aggregates the commits into
per-release changelog sections.

Packages are declared in .monorel/config.yml; without configuration a single
root package covering the whole repository is assumed. See
https://github.com/carraways/monorel for the full reference.`,
	Example: `  # Decide the next version for the root package
  monorel bump

  # Preview the api package's changelog
  monorel changelog api

  # Bump, write the changelog, and tag in one go
  monorel release api --tag

  # One line per package: disk vs tag vs pending bump
  monorel status

  # Check the repository, config, and manifests
  monorel doctor`,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Configure(flagLogLevel(), nil)
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupInspection, Title: "Inspection Commands:"},
	)

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to the project config file (default .monorel/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Shorthand for --log-level debug")
}

// flagLogLevel resolves the log level requested on the command line.
// Empty defers to MONOREL_LOG_LEVEL and the config file.
func flagLogLevel() string {
	if debugFlag {
		return "debug"
	}
	return logLevelFlag
}

// Execute runs the root command. Structured errors are printed to stderr
// with their remediation steps; the returned error maps to a process exit
// code via ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if re := clierrors.AsReleaseError(err); re != nil {
		clierrors.PrintError(re)
	} else if _, ok := err.(*ExitError); !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
