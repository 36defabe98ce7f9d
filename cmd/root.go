package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/mcsync/cmd/config"
	syncCmd "github.com/sidkik/mcsync/cmd/sync"
	"github.com/sidkik/mcsync/cmd/transfer"
	"github.com/sidkik/mcsync/cmd/util"
	"github.com/sidkik/mcsync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "MCSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "mcsync",
		Short: "Share a Minecraft world through a git repository",
		Long: "mcsync keeps a Minecraft world in sync between players by " +
			"pushing it to a\nshared git repository, and marks who is " +
			"playing so that only one player\nchanges the world at a time.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		configCmd.New(),
		syncCmd.New(),
		transfer.NewUpload(),
		transfer.NewDownload(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
