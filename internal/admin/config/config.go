package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selects the introductions store binding.
type Backend string

const (
	// BackendHTTP talks to the portfolio REST API.
	BackendHTTP Backend = "http"
	// BackendFirestore reads and writes a Firestore collection.
	BackendFirestore Backend = "firestore"
	// BackendStatic keeps entries in memory.
	BackendStatic Backend = "static"
)

const (
	defaultConfigFile    = "admin.yaml"
	defaultAddress       = ":8080"
	defaultBasePath      = "/admin"
	defaultEnvironment   = "Development"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultShutdown      = 10 * time.Second
	defaultAPITimeout    = 10 * time.Second
	defaultCollection    = "introductions"
	defaultSessionCookie = "admin_session"
	defaultSessionIdle   = 30 * time.Minute
	defaultSessionLife   = 12 * time.Hour
	defaultCSRFCookie    = "admin_csrf"
	defaultEditorTTL     = 30 * time.Minute
	defaultPageSize      = 10
	maxPageSize          = 50
	defaultLocale        = "ko"
	defaultLogLevel      = "info"
)

// Config captures the admin runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Session  SessionConfig  `yaml:"session"`
	Editor   EditorConfig   `yaml:"editor"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	BasePath        string        `yaml:"base_path"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig selects and tunes the introductions store.
type BackendConfig struct {
	Mode                Backend       `yaml:"mode"`
	APIBaseURL          string        `yaml:"api_base_url"`
	APITimeout          time.Duration `yaml:"api_timeout"`
	FirestoreCollection string        `yaml:"firestore_collection"`
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string   `yaml:"project_id"`
	RequireVerified bool     `yaml:"require_verified_email"`
	AllowedDomains  []string `yaml:"allowed_domains"`
}

// SessionConfig controls the signed session cookie and the CSRF cookie.
type SessionConfig struct {
	CookieName   string        `yaml:"cookie_name"`
	HashKey      string        `yaml:"hash_key"`
	BlockKey     string        `yaml:"block_key"`
	CookieSecure bool          `yaml:"cookie_secure"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	Lifetime     time.Duration `yaml:"lifetime"`
	CSRFCookie   string        `yaml:"csrf_cookie"`
}

// EditorConfig tunes the server-side entry editors.
type EditorConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// UIConfig holds presentation defaults.
type UIConfig struct {
	PageSize      int    `yaml:"page_size"`
	DefaultLocale string `yaml:"default_locale"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	file         string
	fileSet      bool
	envMap       map[string]string
	useSystemEnv bool
}

// WithFile overrides the YAML file path. An empty path disables the file layer.
func WithFile(path string) Option {
	return func(o *loaderOptions) {
		o.file = path
		o.fileSet = true
	}
}

// WithEnvMap injects explicit environment values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables os.LookupEnv.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         defaultAddress,
			BasePath:        defaultBasePath,
			Environment:     defaultEnvironment,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdown,
		},
		Backend: BackendConfig{
			Mode:                BackendStatic,
			APITimeout:          defaultAPITimeout,
			FirestoreCollection: defaultCollection,
		},
		Session: SessionConfig{
			CookieName:  defaultSessionCookie,
			IdleTimeout: defaultSessionIdle,
			Lifetime:    defaultSessionLife,
			CSRFCookie:  defaultCSRFCookie,
		},
		Editor: EditorConfig{TTL: defaultEditorTTL},
		UI: UIConfig{
			PageSize:      defaultPageSize,
			DefaultLocale: defaultLocale,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

// Load assembles the configuration: defaults, then the optional YAML file, then environment variables.
// The file path comes from WithFile, else ADMIN_CONFIG, else admin.yaml; a missing default file is ignored.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			return os.LookupEnv(key)
		}
		return "", false
	}

	cfg := Default()

	path, explicit := options.file, options.fileSet
	if !explicit {
		if v, ok := lookup("ADMIN_CONFIG"); ok && strings.TrimSpace(v) != "" {
			path, explicit = strings.TrimSpace(v), true
		} else {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if !explicit && errors.Is(err, os.ErrNotExist) {
				err = nil
			}
			if err != nil {
				return Config{}, err
			}
		}
	}

	var invalid []string
	applyEnv(lookup, &cfg, &invalid)

	cfg.normalise()
	if err := cfg.validate(invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(lookup lookupFunc, cfg *Config, invalid *[]string) {
	setString(lookup, "ADMIN_HTTP_ADDR", &cfg.Server.Address)
	setString(lookup, "ADMIN_BASE_PATH", &cfg.Server.BasePath)
	setString(lookup, "ADMIN_ENVIRONMENT", &cfg.Server.Environment)
	setDuration(lookup, "ADMIN_READ_TIMEOUT", &cfg.Server.ReadTimeout, invalid)
	setDuration(lookup, "ADMIN_WRITE_TIMEOUT", &cfg.Server.WriteTimeout, invalid)
	setDuration(lookup, "ADMIN_IDLE_TIMEOUT", &cfg.Server.IdleTimeout, invalid)
	setDuration(lookup, "ADMIN_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout, invalid)

	if v, ok := lookup("ADMIN_BACKEND"); ok && strings.TrimSpace(v) != "" {
		cfg.Backend.Mode = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	setString(lookup, "PORTFOLIO_API_BASE_URL", &cfg.Backend.APIBaseURL)
	setDuration(lookup, "PORTFOLIO_API_TIMEOUT", &cfg.Backend.APITimeout, invalid)
	setString(lookup, "ADMIN_FIRESTORE_COLLECTION", &cfg.Backend.FirestoreCollection)

	setString(lookup, "FIREBASE_PROJECT_ID", &cfg.Firebase.ProjectID)
	setBool(lookup, "ADMIN_REQUIRE_VERIFIED_EMAIL", &cfg.Firebase.RequireVerified, invalid)
	if v, ok := lookup("ADMIN_ALLOWED_EMAIL_DOMAINS"); ok && strings.TrimSpace(v) != "" {
		cfg.Firebase.AllowedDomains = strings.Split(v, ",")
	}

	setString(lookup, "ADMIN_SESSION_COOKIE", &cfg.Session.CookieName)
	setString(lookup, "ADMIN_SESSION_HASH_KEY", &cfg.Session.HashKey)
	setString(lookup, "ADMIN_SESSION_BLOCK_KEY", &cfg.Session.BlockKey)
	setBool(lookup, "ADMIN_SESSION_SECURE", &cfg.Session.CookieSecure, invalid)
	setDuration(lookup, "ADMIN_SESSION_IDLE_TIMEOUT", &cfg.Session.IdleTimeout, invalid)
	setDuration(lookup, "ADMIN_SESSION_LIFETIME", &cfg.Session.Lifetime, invalid)
	setString(lookup, "ADMIN_CSRF_COOKIE", &cfg.Session.CSRFCookie)

	setDuration(lookup, "ADMIN_EDITOR_TTL", &cfg.Editor.TTL, invalid)

	setInt(lookup, "ADMIN_PAGE_SIZE", &cfg.UI.PageSize, invalid)
	setString(lookup, "ADMIN_DEFAULT_LOCALE", &cfg.UI.DefaultLocale)

	setString(lookup, "LOG_LEVEL", &cfg.Log.Level)
}

func (c *Config) normalise() {
	c.Server.BasePath = strings.TrimSpace(c.Server.BasePath)
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/"
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
	if c.Server.BasePath != "/" {
		c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	}
	c.Backend.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.APIBaseURL), "/")
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.UI.DefaultLocale = strings.ToLower(strings.TrimSpace(c.UI.DefaultLocale))
}

func (c *Config) validate(invalid []string) error {
	fields := append([]string(nil), invalid...)

	if strings.TrimSpace(c.Server.Address) == "" {
		fields = append(fields, "Server.Address")
	}
	switch c.Backend.Mode {
	case BackendHTTP:
		if c.Backend.APIBaseURL == "" {
			fields = append(fields, "Backend.APIBaseURL")
		}
	case BackendFirestore:
		if strings.TrimSpace(c.Firebase.ProjectID) == "" {
			fields = append(fields, "Firebase.ProjectID")
		}
	case BackendStatic:
	default:
		fields = append(fields, "Backend.Mode")
	}
	if c.Session.HashKey != "" && !isSecretRef(c.Session.HashKey) {
		if _, err := decodeKey(c.Session.HashKey); err != nil {
			fields = append(fields, "Session.HashKey")
		}
	}
	if c.Session.BlockKey != "" && !isSecretRef(c.Session.BlockKey) {
		key, err := decodeKey(c.Session.BlockKey)
		if err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
			fields = append(fields, "Session.BlockKey")
		}
	}
	if c.UI.PageSize <= 0 || c.UI.PageSize > maxPageSize {
		fields = append(fields, "UI.PageSize")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		fields = append(fields, "Log.Level")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

// HasSecretRefs reports whether any session key is a secret:// reference that must be resolved
// before SessionKeys is called.
func (c Config) HasSecretRefs() bool {
	return isSecretRef(c.Session.HashKey) || isSecretRef(c.Session.BlockKey)
}

func isSecretRef(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), "secret://")
}

// SessionKeys decodes the configured cookie keys. Keys may be base64 (std or URL) or raw strings.
func (c Config) SessionKeys() (hash, block []byte, err error) {
	if c.Session.HashKey != "" {
		if hash, err = decodeKey(c.Session.HashKey); err != nil {
			return nil, nil, err
		}
	}
	if c.Session.BlockKey != "" {
		if block, err = decodeKey(c.Session.BlockKey); err != nil {
			return nil, nil, err
		}
	}
	return hash, block, nil
}

func decodeKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("config: empty key")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(raw); err == nil && len(b) >= 16 {
			return b, nil
		}
	}
	if len(raw) < 16 {
		return nil, fmt.Errorf("config: key too short (%d bytes)", len(raw))
	}
	return []byte(raw), nil
}

func setString(lookup lookupFunc, key string, dst *string) {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(lookup lookupFunc, key string, dst *time.Duration, invalid *[]string) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d < 0 {
		*invalid = append(*invalid, key)
		return
	}
	*dst = d
}

func setInt(lookup lookupFunc, key string, dst *int, invalid *[]string) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		*invalid = append(*invalid, key)
		return
	}
	*dst = n
}

func setBool(lookup lookupFunc, key string, dst *bool, invalid *[]string) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		*invalid = append(*invalid, key)
		return
	}
	*dst = b
}
