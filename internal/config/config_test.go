package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv points XDG directories at a temp dir and clears overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, key := range []string{EnvAPIURL, EnvToken, EnvLogLevel, EnvLLMAPIKey, EnvWorkspace} {
		t.Setenv(key, "")
	}
	return dir
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/sg/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "sg", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFoundUsesDefaults(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := Load(Path())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.RateLimit != DefaultRateLimit {
		t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, DefaultRateLimit)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "text" {
		t.Errorf("log = %s/%s, want warn/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.PairOnlyDedup() {
		t.Error("conceptual dedup should default to typed")
	}
	if want := filepath.Join(dir, "data", "sg"); cfg.WorkspaceDir != want {
		t.Errorf("WorkspaceDir = %q, want %q", cfg.WorkspaceDir, want)
	}
	if want := filepath.Join(dir, "data", "sg", DBFile); cfg.DBPath() != want {
		t.Errorf("DBPath() = %q, want %q", cfg.DBPath(), want)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	isolateEnv(t)

	content := `api_url: https://graph.example.org
token: file-token
rate_limit: 2.5
log_level: info
log_format: json
workspace_dir: ~/sg-work
conceptual_dedup: pair
llm_provider: anthropic
llm_model: some-model
`
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		field, got, want string
	}{
		{"APIURL", cfg.APIURL, "https://graph.example.org"},
		{"Token", cfg.Token, "env-token"},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"LLMProvider", cfg.LLMProvider, "anthropic"},
		{"LLMModel", cfg.LLMModel, "some-model"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if !cfg.PairOnlyDedup() {
		t.Error("PairOnlyDedup() = false, want true")
	}
	if home, err := os.UserHomeDir(); err == nil {
		if want := filepath.Join(home, "sg-work"); cfg.WorkspaceDir != want {
			t.Errorf("WorkspaceDir = %q, want %q", cfg.WorkspaceDir, want)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"bad level", "log_level: loud\n", ErrInvalidLogLevel},
		{"bad format", "log_format: xml\n", ErrInvalidLogFormat},
		{"bad dedup", "conceptual_dedup: fuzzy\n", ErrInvalidDedup},
		{"negative rate", "rate_limit: -1\n", ErrInvalidRateLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("api_url: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	in := &Config{APIURL: "https://x.example", Token: "secret", LogLevel: "error", ConceptualDedup: DedupPair}
	if err := in.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %v, want 0600", perm)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.APIURL != in.APIURL || out.Token != in.Token || out.LogLevel != "error" || !out.PairOnlyDedup() {
		t.Errorf("round trip = %+v", out)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	tests := []struct {
		input, want string
	}{
		{"~/data", filepath.Join(home, "data")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		logDebug      bool
		wantJSON      bool
	}{
		{"debug", "text", true, false},
		{"warn", "json", false, true},
		{"nonsense", "", false, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewLogger(tt.level, tt.format, &buf)
		logger.Debug("debug line")
		logger.Error("error line", "key", "value")

		out := buf.String()
		if got := strings.Contains(out, "debug line"); got != tt.logDebug {
			t.Errorf("NewLogger(%q) debug logged = %v, want %v", tt.level, got, tt.logDebug)
		}
		if got := strings.HasPrefix(out, "{") || strings.Contains(out, "\n{"); got != tt.wantJSON {
			t.Errorf("NewLogger(%q, %q) json = %v, want %v: %s", tt.level, tt.format, got, tt.wantJSON, out)
		}
		if !strings.Contains(out, "error line") {
			t.Errorf("NewLogger(%q) dropped error line", tt.level)
		}
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("api_url: https://file.example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "env-token")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.Token)
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want no default applied", cfg.LogLevel)
	}
	if cfg.APIURL != "https://file.example" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}

	missing, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil || missing.APIURL != "" {
		t.Errorf("LoadFile(missing) = %+v, %v", missing, err)
	}
}
