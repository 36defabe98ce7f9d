package version

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/mcsync/pkg/config"
	"github.com/sidkik/mcsync/pkg/version"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of mcsync.",
		Long: "Print the local version of mcsync, and the repository and\n" +
			"branch that worlds are synced through.",
		Run: func(_ *cobra.Command, _ []string) {
			run()
		},
	}
}

func run() {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)

	cfg, err := parseUserConfig()
	if err != nil {
		log.WithError(err).Debug("Failed to read user config")
		return
	}
	fmt.Fprintf(stdout, "sync repository: %s (%s)\n", cfg.RepoLink, cfg.GetBranch())
}
