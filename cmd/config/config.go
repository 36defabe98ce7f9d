package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/mcsync/cmd/util"
	"github.com/sidkik/mcsync/pkg/config"
	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/repo"
	"github.com/sidkik/mcsync/pkg/world"
)

// Mocked for unit testing.
var (
	stdout                  io.Writer = os.Stdout
	stdin                   io.Reader = os.Stdin
	fs                                = afero.NewOsFs()
	guessDefaults                     = guessDefaultsImpl
	parseUserConfig                   = config.ParseUser
	writeUserConfig                   = config.WriteUser
	getWorkingDirectory               = os.Getwd
	getCurrentUser                    = user.Current
	getHomeDirectory                  = homedir.Dir
	getenv                            = os.Getenv
	goos                              = runtime.GOOS
	validateSingleplayerDir           = config.ValidateSingleplayerDirectory
	validateServerDir                 = config.ValidateServerDirectory
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the mcsync user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s",
					errors.GetPrintableMessage(err))
				util.HandleFatalError(err)
			}
		},
	}

	flags := []struct {
		field      *string
		name, help string
	}{
		{&cliOpts.Username, "username", "Set the username that identifies you to other players."},
		{&cliOpts.SingleplayerDirectory, "singleplayer-dir", "Set the singleplayer world directory."},
		{&cliOpts.ServerDirectory, "server-dir", "Set the server directory."},
		{&cliOpts.SyncDirectory, "sync-dir", "Set the directory that the shared repository is cloned into."},
		{&cliOpts.RepoLink, "repo", "Set the URL of the shared repository."},
		{&cliOpts.ProcessName, "process-name", "Set the name of the Minecraft process."},
	}
	for _, flag := range flags {
		cmd.Flags().StringVar(flag.field, flag.name, "", flag.help+" "+
			"Optional: If not set, `mcsync config` will interactively prompt.")
	}
	cmd.Flags().StringVar(&cliOpts.Branch, "branch", "",
		"Set the branch of the shared repository. "+
			"Optional: If not set, the current branch or `main` is used.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-username",
			short: "Get the configured username",
			fn:    func(cfg config.User) string { return cfg.Username },
		},
		{
			use:   "get-singleplayer-dir",
			short: "Get the configured singleplayer world directory",
			fn:    func(cfg config.User) string { return cfg.SingleplayerDirectory },
		},
		{
			use:   "get-server-dir",
			short: "Get the configured server directory",
			fn:    func(cfg config.User) string { return cfg.ServerDirectory },
		},
		{
			use:   "get-sync-dir",
			short: "Get the configured sync directory",
			fn:    func(cfg config.User) string { return cfg.SyncDirectory },
		},
		{
			use:   "get-repo",
			short: "Get the configured shared repository",
			fn:    func(cfg config.User) string { return cfg.RepoLink },
		},
		{
			use:   "get-process-name",
			short: "Get the configured Minecraft process name",
			fn:    func(cfg config.User) string { return cfg.GetProcessName() },
		},
		{
			use:   "get-branch",
			short: "Get the configured branch of the shared repository",
			fn:    func(cfg config.User) string { return cfg.GetBranch() },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
					return
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for any settings that weren't passed on the command
// line, and writes the resulting user config.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func usernameValidationFn(username string) (string, bool) {
	if username == "" {
		return "The username must not be empty.", false
	}

	if strings.ContainsAny(username, " \t/\\") {
		return "The username must not contain spaces or slashes. " +
			"Please pick another username.", false
	}
	return "", true
}

// optionalDirValidationFn returns a validation function for world
// directories. An empty answer is allowed, since players may only use one of
// the singleplayer and server modes.
func optionalDirValidationFn(validate func(string) error) func(string) (string, bool) {
	return func(dir string) (string, bool) {
		if dir == "" {
			return "", true
		}

		if err := validate(dir); err != nil {
			return errors.GetPrintableMessage(err), false
		}
		return "", true
	}
}

func syncDirValidationFn(dir string) (string, bool) {
	if dir == "" {
		return "The sync directory must not be empty.", false
	}

	if isDir, err := afero.IsDir(fs, dir); err == nil && !isDir {
		return fmt.Sprintf("%q is a file. Please pick a directory.", dir), false
	}
	return "", true
}

func repoValidationFn(link string) (string, bool) {
	if _, err := repo.Identity(link); err != nil {
		return fmt.Sprintf("%q is not a valid repository URL. Please enter "+
			"an SSH or HTTPS clone URL, such as "+
			"git@github.com:owner/world.git.", link), false
	}
	return "", true
}

func processNameValidationFn(name string) (string, bool) {
	if name == "" {
		return "The process name must not be empty.", false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)

	// isPath is set for answers that may refer to the home directory.
	isPath bool
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is.
// It makes best guesses at reasonable defaults, and allows users to explicitly
// override them if desired.
func generateConfig(cliOpts config.User) (config.User, error) {
	defaults := guessDefaults()
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	if cfg.Branch == "" {
		cfg.Branch = currConfig.Branch
	}
	cfg.PollInterval = currConfig.PollInterval
	cfg.ConfirmRounds = currConfig.ConfirmRounds

	var prompts []prompt
	if cliOpts.Username == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter your username.\n" +
				"Other players see it when you're online.",
			prompt:        "Username",
			defaultAnswer: defaults.Username,
			currAnswer:    currConfig.Username,
			field:         &cfg.Username,
			validationFn:  usernameValidationFn,
		})
	}

	if cliOpts.SingleplayerDirectory == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the path to the singleplayer world to sync.\n" +
				"It's a folder in the Minecraft `saves` directory. " +
				"Leave it empty if you only sync a server.",
			prompt:        "Singleplayer world directory",
			defaultAnswer: defaults.SingleplayerDirectory,
			currAnswer:    currConfig.SingleplayerDirectory,
			field:         &cfg.SingleplayerDirectory,
			validationFn:  optionalDirValidationFn(validateSingleplayerDir),
			isPath:        true,
		})
	}

	if cliOpts.ServerDirectory == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the path to the server directory to sync.\n" +
				"It must contain the world, world_nether and world_the_end folders. " +
				"Leave it empty if you only sync singleplayer.",
			prompt:        "Server directory",
			defaultAnswer: defaults.ServerDirectory,
			currAnswer:    currConfig.ServerDirectory,
			field:         &cfg.ServerDirectory,
			validationFn:  optionalDirValidationFn(validateServerDir),
			isPath:        true,
		})
	}

	if cliOpts.SyncDirectory == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the directory to clone the shared repository into.\n" +
				"mcsync manages its contents, so it shouldn't be used for anything else.",
			prompt:        "Sync directory",
			defaultAnswer: defaults.SyncDirectory,
			currAnswer:    currConfig.SyncDirectory,
			field:         &cfg.SyncDirectory,
			validationFn:  syncDirValidationFn,
			isPath:        true,
		})
	}

	if cliOpts.RepoLink == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the clone URL of the repository shared with the other players.\n" +
				"SSH URLs use your SSH agent, and HTTPS URLs use the " +
				repo.TokenEnv + " environment variable.",
			prompt:       "Repository URL",
			currAnswer:   currConfig.RepoLink,
			field:        &cfg.RepoLink,
			validationFn: repoValidationFn,
		})
	}

	if cliOpts.ProcessName == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the name of the Minecraft process.\n" +
				"mcsync watches for it to know when you start and stop playing.",
			prompt:        "Minecraft process name",
			defaultAnswer: config.DefaultProcessName,
			currAnswer:    currConfig.ProcessName,
			field:         &cfg.ProcessName,
			validationFn:  processNameValidationFn,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.isPath && resp != "" {
				resp, err = homedir.Expand(resp)
				if err != nil {
					return config.User{}, errors.WithContext(err, "expand path")
				}
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

// guessDefaults tries to guess reasonable defaults for the fields in the user
// config.
func guessDefaultsImpl() (cfg config.User) {
	if user, err := getCurrentUser(); err == nil {
		cfg.Username = user.Username
		if _, ok := usernameValidationFn(cfg.Username); !ok {
			cfg.Username = ""
		}
	} else {
		log.WithError(err).Info("Failed to guess username")
	}

	if dir, err := guessSingleplayerDirectory(); err == nil {
		cfg.SingleplayerDirectory = dir
	} else {
		log.WithError(err).Info("Failed to guess singleplayer world")
	}

	if dir, err := guessServerDirectory(); err == nil {
		cfg.ServerDirectory = dir
	} else {
		log.WithError(err).Info("Failed to guess server directory")
	}

	if home, err := getHomeDirectory(); err == nil {
		cfg.SyncDirectory = filepath.Join(home, ".mcsync", "sync")
	} else {
		log.WithError(err).Info("Failed to guess sync directory")
	}

	return cfg
}

// savesDirectory returns the default location of the Minecraft launcher's
// saves folder.
func savesDirectory() (string, error) {
	if goos == "windows" {
		appData := getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA is not set")
		}
		return filepath.Join(appData, ".minecraft", "saves"), nil
	}

	home, err := getHomeDirectory()
	if err != nil {
		return "", errors.WithContext(err, "get home directory")
	}

	if goos == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "minecraft", "saves"), nil
	}
	return filepath.Join(home, ".minecraft", "saves"), nil
}

// guessSingleplayerDirectory returns the most recently played world in the
// saves folder, if any.
func guessSingleplayerDirectory() (string, error) {
	saves, err := savesDirectory()
	if err != nil {
		return "", err
	}

	files, err := afero.ReadDir(fs, saves)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WithContext(err, "read saves directory")
	}

	var worlds []os.FileInfo
	for _, f := range files {
		if f.IsDir() && !strings.HasPrefix(f.Name(), world.BackupPrefix) {
			worlds = append(worlds, f)
		}
	}
	if len(worlds) == 0 {
		return "", nil
	}

	sort.Slice(worlds, func(i, j int) bool {
		return worlds[i].ModTime().After(worlds[j].ModTime())
	})
	return filepath.Join(saves, worlds[0].Name()), nil
}

// guessServerDirectory returns the current directory if it's a server
// directory.
func guessServerDirectory() (string, error) {
	currDir, err := getWorkingDirectory()
	if err != nil {
		return "", errors.WithContext(err, "get current directory")
	}

	if err := world.ValidateServerDir(fs, currDir); err != nil {
		return "", nil
	}
	return currDir, nil
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\r\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
