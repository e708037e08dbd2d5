// Copyright 2026 Loupe Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	// ServiceName for keyring storage
	ServiceName = "loupe"
	// DefaultConfigFileName is the name of the config file
	DefaultConfigFileName = "louped"
	// keyringAPIKey is the keyring entry holding the Anthropic key
	keyringAPIKey = "anthropic_api_key"
)

// Config holds all configuration for the Loupe server.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LLMConfig struct {
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"` // From CLI/env/keyring only
	AnthropicModel  string  `mapstructure:"anthropic_model"`
	Temperature     float64 `mapstructure:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens"`
}

type ChatConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from multiple sources with proper priority:
// 1. Command line flags (highest priority)
// 2. Config file
// 3. Environment variables
// 4. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".loupe"))
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/loupe/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	viper.SetEnvPrefix("LOUPE")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveAPIKey(&config)

	return &config, nil
}

// resolveAPIKey fills in the Anthropic key from the standard env var or the
// OS keyring when flags and config left it empty. Keyring failures are
// non-fatal since the key may arrive by other means.
func resolveAPIKey(config *Config) {
	if config.LLM.AnthropicAPIKey != "" {
		return
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.LLM.AnthropicAPIKey = key
		return
	}
	if key, err := keyring.Get(ServiceName, keyringAPIKey); err == nil {
		config.LLM.AnthropicAPIKey = key
	}
}

// SaveAPIKeyToKeyring stores the Anthropic key in the OS keyring.
func SaveAPIKeyToKeyring(value string) error {
	return keyring.Set(ServiceName, keyringAPIKey, value)
}

// DeleteAPIKeyFromKeyring removes the stored Anthropic key.
func DeleteAPIKeyFromKeyring() error {
	return keyring.Delete(ServiceName, keyringAPIKey)
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5006)

	viper.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("llm.temperature", 1.0)
	viper.SetDefault("llm.max_tokens", 4096)

	viper.SetDefault("chat.system_prompt", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}
