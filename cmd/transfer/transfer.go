package transfer

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sidkik/mcsync/cmd/util"
	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/sync"
)

// Mocked for unit testing.
var newSession = util.NewSession

// NewUpload creates a new `upload` command.
func NewUpload() *cobra.Command {
	return newCommand("upload",
		"Upload your world to the shared repository",
		(*sync.Session).Upload)
}

// NewDownload creates a new `download` command.
func NewDownload() *cobra.Command {
	return newCommand("download",
		"Replace your world with the one in the shared repository",
		(*sync.Session).Download)
}

func newCommand(use, short string,
	op func(*sync.Session, context.Context) error) *cobra.Command {

	var opts util.SessionOptions
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + ".\nOther players' presence and remote changes are " +
			"only warned about, not enforced.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(opts, use, op); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.Server, "server", false,
		"Use the configured server directory instead of the singleplayer world")
	cmd.Flags().BoolVarP(&opts.NoConfirm, "yes", "y", false,
		"Skip the confirmation prompt")
	return cmd
}

func run(opts util.SessionOptions, use string,
	op func(*sync.Session, context.Context) error) error {

	session, err := newSession(opts)
	if err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()
	return errors.WithContext(op(session, ctx), use)
}
