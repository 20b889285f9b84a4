package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/logging"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/tui"
	"github.com/abdidvp/sonarfix/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// app carries state shared by every subcommand.
type app struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "sonarfix",
		Short: "Fix code-quality findings file by file",
		Long:  "sonarfix retrieves issues from a SonarQube server, groups them by file, and asks a reasoning service to propose and apply fixes for each file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.verbose)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.RenderError(err))
	}
	return err
}

// reportConfigError prints the list of missing variables when err is a ConfigError.
func reportConfigError(cmd *cobra.Command, err error) {
	var cerr *domain.ConfigError
	if errors.As(err, &cerr) && len(cerr.Missing) > 0 {
		fmt.Fprint(cmd.ErrOrStderr(), tui.RenderMissingConfig(cerr.Missing))
	}
}
