/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults used when neither the config file nor the command line sets a
// value.
const (
	DefaultListenAddr              = "127.0.0.1:8780"
	DefaultMetricsListenAddr       = "127.0.0.1:6780"
	DefaultLogLevel                = "info"
	DefaultHeaderExtensions        = "one-byte"
	DefaultWebsocketMaxMessageSize = 1048576
	DefaultCallIdleTimeout         = 30 * time.Minute
)

// File is the YAML configuration file of sdpguardd.
type File struct {
	Listen string `mapstructure:"listen"`

	Log LogFile `mapstructure:"log"`

	Metrics MetricsFile `mapstructure:"metrics"`

	HeaderExtensions        string        `mapstructure:"header_extensions"`
	WebsocketMaxMessageSize int64         `mapstructure:"websocket_max_message_size"`
	CallIdleTimeout         time.Duration `mapstructure:"call_idle_timeout"`
	RequestLog              bool          `mapstructure:"request_log"`
}

// LogFile holds the logging part of File.
type LogFile struct {
	Level     string `mapstructure:"level"`
	Timestamp bool   `mapstructure:"timestamp"`
	File      string `mapstructure:"file"`
}

// MetricsFile holds the metrics part of File.
type MetricsFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoadFile reads the YAML config file at path. An empty path yields the
// defaults, still with environment overrides applied (SDPGUARDD_LOG_LEVEL
// and friends).
func LoadFile(path string) (*File, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SDPGUARDD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	f := &File{}
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if f.WebsocketMaxMessageSize <= 0 {
		return nil, fmt.Errorf("websocket_max_message_size must be positive, got %d", f.WebsocketMaxMessageSize)
	}
	if f.CallIdleTimeout < 0 {
		return nil, fmt.Errorf("call_idle_timeout must not be negative, got %v", f.CallIdleTimeout)
	}

	return f, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", DefaultListenAddr)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.timestamp", true)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", DefaultMetricsListenAddr)
	v.SetDefault("header_extensions", DefaultHeaderExtensions)
	v.SetDefault("websocket_max_message_size", DefaultWebsocketMaxMessageSize)
	v.SetDefault("call_idle_timeout", DefaultCallIdleTimeout)
	v.SetDefault("request_log", false)
}
