// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

type Config struct {
	Version           string
	Host              string `toml:"host" mapstructure:"host"`
	Port              int    `toml:"port" mapstructure:"port"`
	BaseURL           string `toml:"baseUrl" mapstructure:"baseUrl"`
	LogLevel          string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath           string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize        int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups     int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir           string `toml:"dataDir" mapstructure:"dataDir"`
	PprofEnabled      bool   `toml:"pprofEnabled" mapstructure:"pprofEnabled"`
	MetricsEnabled    bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost       string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort       int    `toml:"metricsPort" mapstructure:"metricsPort"`
	DefaultConnective string `toml:"defaultConnective" mapstructure:"defaultConnective"`
	// ExpressionCacheTTL is the lifetime of compiled torrent filter programs, in minutes.
	ExpressionCacheTTL int    `toml:"expressionCacheTTL" mapstructure:"expressionCacheTTL"`
	FilterSetsPath     string `toml:"filterSetsPath" mapstructure:"filterSetsPath"`
}
