package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	clierrors "github.com/carraways/monorel/internal/errors"
	"github.com/carraways/monorel/internal/health"
)

var (
	doctorWaitFlag     bool
	doctorTimeoutFlag  time.Duration
	doctorIntervalFlag time.Duration
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the repository, configuration, and package manifests",
	Long: `Run the monorel health checks: the surrounding git repository, the
configuration and registry, every package manifest, and the version
integrity of each tag series.

With --wait the checks are polled with exponential backoff until they all
pass or the timeout expires. Useful while a clone or checkout settles.

Exit codes:
  0 - All checks passed
  4 - One or more checks failed
  5 - --wait timed out before the checks passed`,
	Example: `  # One-shot health report
  monorel doctor

  # Poll up to two minutes for a healthy state
  monorel doctor --wait

  # Custom timeout and initial poll interval
  monorel doctor --wait --timeout 30s --interval 2s`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDoctor,
}

func init() {
	doctorCmd.GroupID = GroupInspection
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorWaitFlag, "wait", false, "Poll until healthy or timeout")
	doctorCmd.Flags().DurationVar(&doctorTimeoutFlag, "timeout", 2*time.Minute, "Give up polling after this long (with --wait)")
	doctorCmd.Flags().DurationVar(&doctorIntervalFlag, "interval", time.Second, "Initial poll interval (with --wait)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	opts := health.Options{ProjectConfigPath: configFlag}

	if !doctorWaitFlag {
		return reportHealth(cmd, health.RunChecks(opts))
	}

	if doctorIntervalFlag < 100*time.Millisecond {
		return clierrors.NewUsageError("interval must be at least 100ms")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, doctorTimeoutFlag)
	defer cancelTimeout()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " waiting for checks to pass..."
	_ = s.Color("cyan")
	if term.IsTerminal(int(os.Stderr.Fd())) {
		s.Start()
	}
	report, err := health.Poll(ctx, doctorIntervalFlag, func() *health.Report {
		return health.RunChecks(opts)
	})
	s.Stop()

	if err != nil {
		if report != nil {
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
		}
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Timed out after %s waiting for checks to pass.\n", doctorTimeoutFlag)
			return NewExitError(ExitTimeout)
		}
		return err
	}
	return reportHealth(cmd, report)
}

// reportHealth prints the check report and converts a failed report into
// the doctor's exit code.
func reportHealth(cmd *cobra.Command, report *health.Report) error {
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
	if !report.Passed {
		return NewExitError(ExitConfigError)
	}
	return nil
}
