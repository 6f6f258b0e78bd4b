package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithFile(""), WithoutSystemEnv())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Address)
	require.Equal(t, "/admin", cfg.Server.BasePath)
	require.Equal(t, BackendStatic, cfg.Backend.Mode)
	require.Equal(t, "introductions", cfg.Backend.FirestoreCollection)
	require.Equal(t, 30*time.Minute, cfg.Editor.TTL)
	require.Equal(t, 10, cfg.UI.PageSize)
	require.Equal(t, "ko", cfg.UI.DefaultLocale)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9000"
  base_path: "console/"
backend:
  mode: http
  api_base_url: "https://api.example.com/"
  api_timeout: 3s
editor:
  ttl: 5m
ui:
  page_size: 20
log:
  level: DEBUG
`), 0o600))

	cfg, err := Load(WithFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ADMIN_HTTP_ADDR":  ":9100",
		"ADMIN_EDITOR_TTL": "1m",
	}))
	require.NoError(t, err)

	require.Equal(t, ":9100", cfg.Server.Address, "env overrides file")
	require.Equal(t, "/console", cfg.Server.BasePath)
	require.Equal(t, BackendHTTP, cfg.Backend.Mode)
	require.Equal(t, "https://api.example.com", cfg.Backend.APIBaseURL)
	require.Equal(t, 3*time.Second, cfg.Backend.APITimeout)
	require.Equal(t, time.Minute, cfg.Editor.TTL)
	require.Equal(t, 20, cfg.UI.PageSize)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  environment: Staging\n"), 0o600))

	cfg, err := Load(WithoutSystemEnv(), WithEnvMap(map[string]string{"ADMIN_CONFIG": path}))
	require.NoError(t, err)
	require.Equal(t, "Staging", cfg.Server.Environment)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "missing.yaml")), WithoutSystemEnv())
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadValidationCollectsFields(t *testing.T) {
	_, err := Load(WithFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ADMIN_BACKEND":           "http",
		"ADMIN_EDITOR_TTL":        "soon",
		"ADMIN_PAGE_SIZE":         "500",
		"LOG_LEVEL":               "loud",
		"ADMIN_SESSION_BLOCK_KEY": "short",
	}))
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{
		"ADMIN_EDITOR_TTL",
		"Backend.APIBaseURL",
		"Session.BlockKey",
		"UI.PageSize",
		"Log.Level",
	}, verr.Fields())
}

func TestLoadFirestoreRequiresProject(t *testing.T) {
	_, err := Load(WithFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ADMIN_BACKEND": "firestore",
	}))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields(), "Firebase.ProjectID")

	cfg, err := Load(WithFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ADMIN_BACKEND":       "Firestore",
		"FIREBASE_PROJECT_ID": "portfolio-dev",
	}))
	require.NoError(t, err)
	require.Equal(t, BackendFirestore, cfg.Backend.Mode)
}

func TestSessionKeys(t *testing.T) {
	cfg := Default()
	cfg.Session.HashKey = "c2Vzc2lvbi1oYXNoLWtleS0wMTIzNDU2Nzg5YWJjZGVm"
	cfg.Session.BlockKey = "raw-block-key-0123456789abcdef!!"

	hash, block, err := cfg.SessionKeys()
	require.NoError(t, err)
	require.Equal(t, "session-hash-key-0123456789abcdef", string(hash))
	require.Len(t, block, 32)
}

func TestSecretReferencesSkipKeyValidation(t *testing.T) {
	cfg, err := Load(WithFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"ADMIN_SESSION_HASH_KEY":       "secret://admin-session-hash",
		"ADMIN_SESSION_BLOCK_KEY":      "secret://admin-session-block?version=2",
		"ADMIN_ALLOWED_EMAIL_DOMAINS":  "portfolio.dev,example.com",
		"ADMIN_REQUIRE_VERIFIED_EMAIL": "true",
	}))
	require.NoError(t, err)
	require.True(t, cfg.HasSecretRefs())
	require.True(t, cfg.Firebase.RequireVerified)
	require.Equal(t, []string{"portfolio.dev", "example.com"}, cfg.Firebase.AllowedDomains)
}
