package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Backend selects where tasks are stored.
type Backend string

const (
	BackendSQLite    Backend = "sqlite"
	BackendDocstore  Backend = "docstore"
	BackendFirestore Backend = "firestore"
)

// Firestore locates the Firestore collection and its credentials.
type Firestore struct {
	ProjectID       string
	Database        string
	Collection      string
	APIKey          string
	AccessToken     string
	Endpoint        string
	CredentialsFile string
}

// Docstore locates a ticklist document service.
type Docstore struct {
	Addr       string
	Collection string
}

// Config is the resolved ticklist configuration.
type Config struct {
	Backend        Backend
	Firestore      Firestore
	Docstore       Docstore
	SQLitePath     string
	Collection     string // sqlite collection name
	RequestTimeout time.Duration
	SyncInterval   time.Duration // zero disables background reloads
	LogFile        string
	OptimisticAdd  bool
	ClearPolicy    string
}

const (
	defaultConfigPath     = "~/.config/ticklist/config.toml"
	defaultSQLitePath     = "~/.local/share/ticklist/tasks.sqlite3"
	defaultLogFile        = "~/.local/state/ticklist/ticklist.log"
	defaultCollection     = "todos"
	defaultRequestTimeout = 10 * time.Second
	envPrefix             = "TICKLIST_"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend:        BackendSQLite,
		SQLitePath:     mustExpand(defaultSQLitePath),
		Collection:     defaultCollection,
		RequestTimeout: defaultRequestTimeout,
		LogFile:        mustExpand(defaultLogFile),
		ClearPolicy:    "all",
	}
}

type rawConfig struct {
	Backend        string `toml:"backend"`
	RequestTimeout string `toml:"request_timeout"`
	SyncInterval   string `toml:"sync_interval"`
	LogFile        string `toml:"log_file"`
	OptimisticAdd  *bool  `toml:"optimistic_add"`
	ClearPolicy    string `toml:"clear_policy"`

	Firestore struct {
		ProjectID       string `toml:"project_id"`
		Database        string `toml:"database"`
		Collection      string `toml:"collection"`
		APIKey          string `toml:"api_key"`
		AccessToken     string `toml:"access_token"`
		Endpoint        string `toml:"endpoint"`
		CredentialsFile string `toml:"credentials_file"`
	} `toml:"firestore"`

	Docstore struct {
		Addr       string `toml:"addr"`
		Collection string `toml:"collection"`
	} `toml:"docstore"`

	SQLite struct {
		Path       string `toml:"path"`
		Collection string `toml:"collection"`
	} `toml:"sqlite"`
}

// Load reads the TOML file at path (default ~/.config/ticklist/config.toml),
// then applies TICKLIST_* environment overrides. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}
	return resolve(raw)
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. With no paths it reads .env in
// the working directory. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", p, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func resolve(raw rawConfig) (Config, error) {
	cfg := Default()

	if b := strings.ToLower(strings.TrimSpace(raw.Backend)); b != "" {
		cfg.Backend = Backend(b)
	}
	switch cfg.Backend {
	case BackendSQLite, BackendDocstore, BackendFirestore:
	default:
		return Config{}, fmt.Errorf("unknown backend %q (want sqlite, docstore or firestore)", raw.Backend)
	}

	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid request_timeout %q", raw.RequestTimeout)
		}
		cfg.RequestTimeout = d
	}
	if v := strings.TrimSpace(raw.SyncInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid sync_interval %q", raw.SyncInterval)
		}
		cfg.SyncInterval = d
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.OptimisticAdd != nil {
		cfg.OptimisticAdd = *raw.OptimisticAdd
	}
	if v := strings.ToLower(strings.TrimSpace(raw.ClearPolicy)); v != "" {
		if v != "all" && v != "failed" {
			return Config{}, fmt.Errorf("invalid clear_policy %q (want all or failed)", raw.ClearPolicy)
		}
		cfg.ClearPolicy = v
	}

	cfg.Firestore = Firestore{
		ProjectID:       strings.TrimSpace(raw.Firestore.ProjectID),
		Database:        strings.TrimSpace(raw.Firestore.Database),
		Collection:      strings.TrimSpace(raw.Firestore.Collection),
		APIKey:          strings.TrimSpace(raw.Firestore.APIKey),
		AccessToken:     strings.TrimSpace(raw.Firestore.AccessToken),
		Endpoint:        strings.TrimSpace(raw.Firestore.Endpoint),
		CredentialsFile: strings.TrimSpace(raw.Firestore.CredentialsFile),
	}
	if cfg.Firestore.Endpoint == "" {
		cfg.Firestore.Endpoint = strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST"))
	}
	if cfg.Firestore.CredentialsFile != "" {
		cfg.Firestore.CredentialsFile = mustExpand(cfg.Firestore.CredentialsFile)
	}
	if cfg.Backend == BackendFirestore && cfg.Firestore.ProjectID == "" {
		return Config{}, fmt.Errorf("backend firestore requires firestore.project_id")
	}

	cfg.Docstore = Docstore{
		Addr:       strings.TrimSpace(raw.Docstore.Addr),
		Collection: strings.TrimSpace(raw.Docstore.Collection),
	}

	if v := strings.TrimSpace(raw.SQLite.Path); v != "" {
		cfg.SQLitePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.SQLite.Collection); v != "" {
		cfg.Collection = v
	}
	return cfg, nil
}

// applyEnv overlays TICKLIST_* variables on values read from the file.
func applyEnv(raw *rawConfig) error {
	strs := map[string]*string{
		"BACKEND":                    &raw.Backend,
		"REQUEST_TIMEOUT":            &raw.RequestTimeout,
		"SYNC_INTERVAL":              &raw.SyncInterval,
		"LOG_FILE":                   &raw.LogFile,
		"CLEAR_POLICY":               &raw.ClearPolicy,
		"FIRESTORE_PROJECT_ID":       &raw.Firestore.ProjectID,
		"FIRESTORE_DATABASE":         &raw.Firestore.Database,
		"FIRESTORE_COLLECTION":       &raw.Firestore.Collection,
		"FIRESTORE_API_KEY":          &raw.Firestore.APIKey,
		"FIRESTORE_ACCESS_TOKEN":     &raw.Firestore.AccessToken,
		"FIRESTORE_ENDPOINT":         &raw.Firestore.Endpoint,
		"FIRESTORE_CREDENTIALS_FILE": &raw.Firestore.CredentialsFile,
		"DOCSTORE_ADDR":              &raw.Docstore.Addr,
		"DOCSTORE_COLLECTION":        &raw.Docstore.Collection,
		"SQLITE_PATH":                &raw.SQLite.Path,
		"SQLITE_COLLECTION":          &raw.SQLite.Collection,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "OPTIMISTIC_ADD"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sOPTIMISTIC_ADD %q", envPrefix, v)
		}
		raw.OptimisticAdd = &b
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
