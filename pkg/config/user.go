package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/mcsync/pkg/errors"
	"github.com/sidkik/mcsync/pkg/world"
)

const (
	// UserConfigPath is the default path to the mcsync user config.
	UserConfigPath = "~/.mcsync.yaml"

	// InitialUserConfigVersion is the first version of the mcsync user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the mcsync user
	// config of the current mcsync binary.
	SupportedUserConfigVersion = "v1alpha1"

	// DefaultProcessName is matched against running executables when no
	// process name is configured.
	DefaultProcessName = "minecraft"

	// DefaultBranch is the branch of the shared repository that worlds are
	// synced through.
	DefaultBranch = "main"

	// DefaultPollInterval is how often the game process is checked for.
	DefaultPollInterval = 10 * time.Second

	// DefaultConfirmRounds is how many escalating confirmations are asked
	// before an automatic upload.
	DefaultConfirmRounds = 3
)

// User contains the settings that identify the user and where their worlds
// live.
type User struct {
	Version               string `json:"version,omitempty"`
	Username              string `json:"username"`
	SingleplayerDirectory string `json:"singleplayerDirectory,omitempty"`
	ServerDirectory       string `json:"serverDirectory,omitempty"`
	SyncDirectory         string `json:"syncDirectory"`
	RepoLink              string `json:"repoLink"`
	ProcessName           string `json:"minecraftProcessName,omitempty"`
	Branch                string `json:"branch,omitempty"`

	// PollInterval is a duration string such as "10s".
	PollInterval  string `json:"pollInterval,omitempty"`
	ConfirmRounds *int   `json:"confirmRounds,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// GetProcessName returns the configured game process name, or
// DefaultProcessName.
func (u User) GetProcessName() string {
	if u.ProcessName == "" {
		return DefaultProcessName
	}
	return u.ProcessName
}

// GetBranch returns the configured branch, or DefaultBranch.
func (u User) GetBranch() string {
	if u.Branch == "" {
		return DefaultBranch
	}
	return u.Branch
}

// GetPollInterval returns the configured poll interval, or
// DefaultPollInterval if it's unset or invalid. Validate reports invalid
// intervals.
func (u User) GetPollInterval() time.Duration {
	interval, err := time.ParseDuration(u.PollInterval)
	if err != nil || interval <= 0 {
		return DefaultPollInterval
	}
	return interval
}

// GetConfirmRounds returns the configured number of escalating
// confirmations, or DefaultConfirmRounds.
func (u User) GetConfirmRounds() int {
	if u.ConfirmRounds == nil {
		return DefaultConfirmRounds
	}
	return *u.ConfirmRounds
}

// WorldDirectory returns the directory that's synced for the given mode.
func (u User) WorldDirectory(server bool) string {
	if server {
		return u.ServerDirectory
	}
	return u.SingleplayerDirectory
}

// Validate checks that every field required to sync in the given mode is set,
// and that the configured world directory has the expected layout.
func (u User) Validate(server bool) error {
	required := []struct{ field, value string }{
		{"username", u.Username},
		{"syncDirectory", u.SyncDirectory},
		{"repoLink", u.RepoLink},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.ConfigError{Field: r.field, Reason: "not set"}
		}
	}

	if strings.ContainsAny(u.Username, " \t\n/\\") {
		return errors.ConfigError{Field: "username",
			Reason: "must not contain whitespace or slashes"}
	}

	if u.PollInterval != "" {
		interval, err := time.ParseDuration(u.PollInterval)
		if err != nil || interval <= 0 {
			return errors.ConfigError{Field: "pollInterval",
				Reason: fmt.Sprintf("%q is not a positive duration", u.PollInterval)}
		}
	}

	if u.ConfirmRounds != nil && *u.ConfirmRounds < 0 {
		return errors.ConfigError{Field: "confirmRounds", Reason: "must not be negative"}
	}

	if server {
		return ValidateServerDirectory(u.ServerDirectory)
	}
	return ValidateSingleplayerDirectory(u.SingleplayerDirectory)
}

// ValidateSingleplayerDirectory checks that `dir` is an existing directory.
func ValidateSingleplayerDirectory(dir string) error {
	return validateDirectory("singleplayerDirectory", dir)
}

// ValidateServerDirectory checks that `dir` is an existing directory that
// contains the world, world_nether and world_the_end folders.
func ValidateServerDirectory(dir string) error {
	if err := validateDirectory("serverDirectory", dir); err != nil {
		return err
	}

	if err := world.ValidateServerDir(fs, dir); err != nil {
		var layoutErr errors.InvalidLayoutError
		if errors.As(err, &layoutErr) {
			return errors.ConfigError{Field: "serverDirectory",
				Reason: layoutErr.FriendlyMessage()}
		}
		return errors.WithContext(err, "validate server directory")
	}
	return nil
}

func validateDirectory(field, dir string) error {
	if dir == "" {
		return errors.ConfigError{Field: field, Reason: "not set"}
	}

	isDir, err := afero.IsDir(fs, dir)
	if err != nil || !isDir {
		return errors.ConfigError{Field: field,
			Reason: fmt.Sprintf("%q is not an existing directory", dir)}
	}
	return nil
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The mcsync user config "+
				"file doesn't exist at %q. Please run `mcsync config` to "+
				"create the user config file.", path)
		}
		return User{}, errors.WithContext(err, "parse")
	}

	// Evaluate relative paths relative to the config path.
	for _, dir := range []*string{
		&config.SingleplayerDirectory,
		&config.ServerDirectory,
		&config.SyncDirectory,
	} {
		if *dir == "" {
			continue
		}

		*dir, err = homedir.Expand(*dir)
		if err != nil {
			return User{}, errors.WithContext(err, "expand directory path")
		}

		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(filepath.Dir(path), *dir)
		}
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's global mcsync
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
