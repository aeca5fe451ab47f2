// Package syncconfig resolves repository, branch and credential settings.
//
// Priority for every value: environment > .env in the working directory >
// ~/.config/plansync/config.json > default.
package syncconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL      = "https://api.github.com/"
	DefaultDataRoot    = "packages/plans/data"
	DefaultBaseBranch  = "main"
	DefaultLanguage    = "en-us"
	DefaultConcurrency = 8
)

// Environment variable names.
const (
	EnvRepoOwner   = "PLANSYNC_REPO_OWNER"
	EnvRepoName    = "PLANSYNC_REPO_NAME"
	EnvAPIURL      = "PLANSYNC_API_URL"
	EnvDataRoot    = "PLANSYNC_DATA_ROOT"
	EnvBaseBranch  = "PLANSYNC_BASE_BRANCH"
	EnvLanguage    = "PLANSYNC_LANGUAGE"
	EnvConcurrency = "PLANSYNC_FETCH_CONCURRENCY"
	EnvToken       = "PLANSYNC_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// ErrNoRepo is returned when the repository owner or name is not configured.
var ErrNoRepo = errors.New("repository not configured: set PLANSYNC_REPO_OWNER and PLANSYNC_REPO_NAME")

// Config is the file config stored at ~/.config/plansync/config.json.
type Config struct {
	RepoOwner        string `json:"repo_owner,omitempty"`
	RepoName         string `json:"repo_name,omitempty"`
	APIURL           string `json:"api_url,omitempty"`
	DataRoot         string `json:"data_root,omitempty"`
	BaseBranch       string `json:"base_branch,omitempty"`
	Language         string `json:"language,omitempty"`
	FetchConcurrency int    `json:"fetch_concurrency,omitempty"`
}

// AuthCredentials is stored at ~/.config/plansync/auth.json.
type AuthCredentials struct {
	Token string `json:"token"`
	Login string `json:"login"`
}

// Settings are the resolved values a command runs with.
type Settings struct {
	RepoOwner        string
	RepoName         string
	APIURL           string
	DataRoot         string
	BaseBranch       string
	Language         string
	FetchConcurrency int
	Token            string
	Login            string
}

// LoadEnv loads .env from the working directory without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

// ConfigDir returns ~/.config/plansync, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "plansync")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads config.json. A missing file yields an empty config.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config.json: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes config.json atomically.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(dir, "config.json", data, 0644)
}

// writeAtomic writes data to dir/name through a temp file and rename.
func writeAtomic(dir, name string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(dir, name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}

// LoadAuth reads auth.json. Returns nil, nil when absent.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse auth.json: %w", err)
	}
	return &creds, nil
}

// SaveAuth writes auth.json with 0600 permissions.
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(dir, "auth.json", data, 0600)
}

// ClearAuth removes auth.json.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func pick(env, file, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if file != "" {
		return file
	}
	return def
}

// GetToken returns the API token and where it came from.
// Priority: PLANSYNC_TOKEN > GITHUB_TOKEN > auth.json.
func GetToken() (token, source string) {
	for _, k := range []string{EnvToken, EnvGitHubToken} {
		if v := os.Getenv(k); v != "" {
			return v, k
		}
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil && creds.Token != "" {
		return creds.Token, "auth.json"
	}
	return "", ""
}

// IsAuthenticated reports whether a token is available.
func IsAuthenticated() bool {
	tok, _ := GetToken()
	return tok != ""
}

// Load resolves every setting. It does not require a repository; call
// Settings.Validate before talking to the remote.
func Load() (*Settings, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	s := &Settings{
		RepoOwner:  pick(EnvRepoOwner, cfg.RepoOwner, ""),
		RepoName:   pick(EnvRepoName, cfg.RepoName, ""),
		APIURL:     pick(EnvAPIURL, cfg.APIURL, DefaultAPIURL),
		DataRoot:   strings.Trim(pick(EnvDataRoot, cfg.DataRoot, DefaultDataRoot), "/"),
		BaseBranch: pick(EnvBaseBranch, cfg.BaseBranch, DefaultBaseBranch),
		Language:   strings.ToLower(pick(EnvLanguage, cfg.Language, DefaultLanguage)),
	}

	s.FetchConcurrency = DefaultConcurrency
	if cfg.FetchConcurrency > 0 {
		s.FetchConcurrency = cfg.FetchConcurrency
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.FetchConcurrency = n
		}
	}

	s.Token, _ = GetToken()
	if creds, err := LoadAuth(); err == nil && creds != nil {
		s.Login = creds.Login
	}
	return s, nil
}

// Validate reports missing required settings.
func (s *Settings) Validate() error {
	if s.RepoOwner == "" || s.RepoName == "" {
		return ErrNoRepo
	}
	return nil
}
