package sync

import (
	"github.com/spf13/cobra"

	"github.com/sidkik/mcsync/cmd/util"
	"github.com/sidkik/mcsync/pkg/errors"
)

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts util.SessionOptions
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync your world around a Minecraft session",
		Long: "Download any newer world from the shared repository, wait for " +
			"Minecraft to\nopen and close while marking you as online, and " +
			"then upload your changes.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.Server, "server", false,
		"Sync the configured server directory instead of the singleplayer world")
	cmd.Flags().BoolVar(&opts.NoConfirm, "no-confirm", false,
		"Download and upload without asking for confirmation")
	return cmd
}

func run(opts util.SessionOptions) error {
	session, err := newSession(opts)
	if err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()
	return errors.WithContext(session.Run(ctx), "sync")
}

// Mocked for unit testing.
var newSession = util.NewSession
