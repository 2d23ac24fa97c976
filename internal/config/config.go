package config

import (
	"fmt"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Executor   ExecutorConfig   `mapstructure:"executor" yaml:"executor"`
	Screenshot ScreenshotConfig `mapstructure:"screenshot" yaml:"screenshot"`
	Speech     SpeechConfig     `mapstructure:"speech" yaml:"speech"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMProvider selects the language model backend.
type LLMProvider string

const (
	ProviderOllama LLMProvider = "ollama"
	ProviderGemini LLMProvider = "gemini"
)

// LLMConfig configures the language model backend used for instruction
// generation.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64       `mapstructure:"top_p" yaml:"top_p"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// BrowserConfig tunes the automated browser.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	ElementTimeout time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	SettleTime     time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	Args           []string      `mapstructure:"args" yaml:"args"`
}

// ExecutorConfig tunes instruction playback.
type ExecutorConfig struct {
	// StepPause is the pacing delay between consecutive instructions.
	StepPause time.Duration `mapstructure:"step_pause" yaml:"step_pause"`
	// AutoExecute lets the run command skip its confirmation prompt.
	AutoExecute bool `mapstructure:"auto_execute" yaml:"auto_execute"`
}

// ScreenshotConfig controls screenshot persistence.
type ScreenshotConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SpeechConfig gates the optional speech/TTS capability probes.
type SpeechConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	RecordBinary string `mapstructure:"record_binary" yaml:"record_binary"`
	TTSBinary    string `mapstructure:"tts_binary" yaml:"tts_binary"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// SetDefaults initializes default values on the given viper instance. Every
// recognized key gets a default so a missing config file still yields a
// usable configuration.
func SetDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "deskpilot")
	v.SetDefault("logger.log_file", "deskpilot.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// LLM backend (local Ollama by default)
	v.SetDefault("llm.provider", string(ProviderOllama))
	v.SetDefault("llm.model", "llama2")
	v.SetDefault("llm.endpoint", "http://127.0.0.1:11434")
	v.SetDefault("llm.api_timeout", 120*time.Second)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.max_tokens", 1000)

	// Browser
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.element_timeout", 10*time.Second)
	v.SetDefault("browser.settle_time", 3*time.Second)

	// Executor
	v.SetDefault("executor.step_pause", 500*time.Millisecond)
	v.SetDefault("executor.auto_execute", false)

	// Screenshot
	v.SetDefault("screenshot.path", "./screenshots")

	// Speech probes
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.record_binary", "arecord")
	v.SetDefault("speech.tts_binary", "espeak")

	// Server
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; an unmarshal failure here is a programming error.
		panic(fmt.Sprintf("config: failed to unmarshal defaults: %v", err))
	}
	return &cfg
}

// ScreenshotDir resolves the configured screenshot path, expanding a leading
// tilde against the user's home directory.
func (c *Config) ScreenshotDir() (string, error) {
	dir, err := homedir.Expand(c.Screenshot.Path)
	if err != nil {
		return "", fmt.Errorf("failed to expand screenshot path %q: %w", c.Screenshot.Path, err)
	}
	return filepath.Clean(dir), nil
}
