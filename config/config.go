// Package config resolves runtime options from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/martinemde/gptcmd/unifiedllm"
)

const (
	// DefaultModel is used when GPT_CMD_MODEL is unset.
	DefaultModel = "gpt-4o"

	systemPromptFile = "system-prompt.txt"
	convosDirName    = ".convos"
	tokenFileName    = "OPENAI_TOKEN"
)

// Config holds the runtime options of one run.
type Config struct {
	// Confirmation prompts are skipped only when this is exactly "true".
	DangerouslySkipPrompts string     `env:"GPT_CMD_DANGEROUSLY_SKIP_PROMPTS"`
	Model                  string     `env:"GPT_CMD_MODEL" envDefault:"gpt-4o"`
	Provider               string     `env:"GPT_CMD_PROVIDER"`
	Token                  string     `env:"GPT_CMD_TOKEN"`
	TokenFilePath          string     `env:"GPT_CMD_TOKEN_FILE_PATH"`
	BaseURL                string     `env:"GPT_CMD_BASE_URL"`
	ProjectRoot            string     `env:"GPT_CMD_PROJECT_ROOT"`
	LogLevel               slog.Level `env:"GPT_CMD_LOG_LEVEL" envDefault:"warn"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads options from environ, or from the process environment when
// environ is nil.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	if cfg.TokenFilePath == "" {
		cfg.TokenFilePath = filepath.Join(home, tokenFileName)
	}
	cfg.TokenFilePath = expandHome(cfg.TokenFilePath, home)

	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot, err = executableDir()
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
	}
	cfg.ProjectRoot = filepath.Clean(expandHome(cfg.ProjectRoot, home))

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.Model = unifiedllm.ResolveModel(cfg.Model)

	if cfg.Provider == "" {
		cfg.Provider = "openai"
		if info := unifiedllm.GetModelInfo(cfg.Model); info != nil {
			cfg.Provider = info.Provider
		}
	}

	return &cfg, nil
}

// SkipPrompts reports whether commands run without confirmation.
func (c *Config) SkipPrompts() bool {
	return c.DangerouslySkipPrompts == "true"
}

// ConvosDir is where transcripts are written.
func (c *Config) ConvosDir() string {
	return filepath.Join(c.ProjectRoot, convosDirName)
}

// SystemPromptPath is the system prompt file read at startup.
func (c *Config) SystemPromptPath() string {
	return filepath.Join(c.ProjectRoot, systemPromptFile)
}

// ReadSystemPrompt loads the system prompt. A missing file is fatal to the
// caller.
func (c *Config) ReadSystemPrompt() (string, error) {
	data, err := os.ReadFile(c.SystemPromptPath())
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadToken returns the inline token if set, otherwise the trimmed content of
// the token file.
func (c *Config) ReadToken() (string, error) {
	if token := strings.TrimSpace(c.Token); token != "" {
		return token, nil
	}
	data, err := os.ReadFile(c.TokenFilePath)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", c.TokenFilePath)
	}
	return token, nil
}

// AdapterConfig describes the model backend for this run. The token is read
// by the adapter on its first call. Providers other than openai may run
// without a token file; gollm then looks up its own environment variables.
func (c *Config) AdapterConfig() unifiedllm.AdapterConfig {
	token := c.ReadToken
	if c.Provider != "openai" {
		token = func() (string, error) {
			t, err := c.ReadToken()
			if errors.Is(err, fs.ErrNotExist) {
				return "", nil
			}
			return t, err
		}
	}
	return unifiedllm.AdapterConfig{
		Provider: c.Provider,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		Token:    token,
	}
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
