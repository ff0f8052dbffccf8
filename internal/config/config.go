package config

import (
	"errors"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"

	"github.com/comigor/openai-chat-go/pkg/openai"
)

// Config holds the application configuration
type Config struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

// OpenAIConfig holds the API and chat configuration
type OpenAIConfig struct {
	APIKey       string   `mapstructure:"api_key"`
	BaseURL      string   `mapstructure:"base_url"`
	APIVersion   int      `mapstructure:"api_version"`
	Model        string   `mapstructure:"model"`
	SystemPrompt string   `mapstructure:"system_prompt"`
	Instructions []string `mapstructure:"instructions"`
	Temperature  *float32 `mapstructure:"temperature"`
	MaxTokens    *int     `mapstructure:"max_tokens"`
	Insecure     bool     `mapstructure:"insecure"`
}

// HistoryConfig holds the transcript store configuration
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from config.yaml (or the file named by
// CONFIG_PATH) and the environment. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetDefault("openai.base_url", openai.DefaultBaseURL)
	v.SetDefault("openai.api_version", openai.DefaultAPIVersion)
	v.SetDefault("openai.model", goopenai.GPT3Dot5Turbo)
	v.SetDefault("log.level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"openai.api_key":       "OPENAI_API_KEY",
		"openai.base_url":      "OPENAI_BASE_URL",
		"openai.model":         "OPENAI_MODEL",
		"openai.system_prompt": "OPENAI_SYSTEM_PROMPT",
		"history.path":         "HISTORY_DB_PATH",
		"log.level":            "LOG_LEVEL",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ClientConfig converts the settings into a library configuration.
func (c OpenAIConfig) ClientConfig() openai.Config {
	cfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.APIVersion != 0 {
		cfg.APIVersion = c.APIVersion
	}
	if c.Insecure {
		tr := openai.NewHTTPTransport()
		tr.AllowInsecure = true
		cfg.Transport = tr
	}
	return cfg
}

// ChatParams returns the generation parameters set in the configuration.
func (c OpenAIConfig) ChatParams() openai.ChatParams {
	return openai.ChatParams{
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}

// Bootstrap returns the messages a new session is primed with: the system
// prompt followed by the scripted instructions.
func (c OpenAIConfig) Bootstrap() []string {
	var out []string
	if c.SystemPrompt != "" {
		out = append(out, c.SystemPrompt)
	}
	return append(out, c.Instructions...)
}
