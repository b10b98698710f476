// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package konfig

import "os"

// Options declares a configuration struct's own source settings, consumed
// by the zero-argument Load path.
type Options struct {
	// EnvPrefix leads every derived external name (e.g. "APP" for
	// APP_PORT and --app-port).
	EnvPrefix string

	// AllowCli enables the command-line source. Enablement is scoped to
	// the whole struct, not to individual fields.
	AllowCli bool

	// AllowConfig enables discovery of a config file in the working
	// directory (config.toml, config.yaml, config.yml, config.json, in
	// that order).
	AllowConfig bool
}

// Configurer is implemented by configuration structs that declare their own
// source settings for Load.
type Configurer interface {
	Konfig() Options
}

// configFileNames is the discovery order for AllowConfig.
var configFileNames = []string{"config.toml", "config.yaml", "config.yml", "config.json"}

// Load populates target from its declared sources with a single call.
// The environment source is always enabled; the CLI and config-file sources
// are enabled when target implements [Configurer] and requests them.
// Defaults come from `default` struct tags.
//
//	type Config struct {
//	    DatabaseURL string `default:"postgres://localhost/app"`
//	    Port        uint16 `default:"8080"`
//	    Debug       bool   `default:"false"`
//	}
//
//	func (Config) Konfig() konfig.Options {
//	    return konfig.Options{EnvPrefix: "APP", AllowCli: true}
//	}
//
// With the declaration above, APP_DATABASE_URL, APP_PORT and APP_DEBUG, and
// the flags --app-database-url, --app-port and --app-debug, feed the struct.
func Load(target any) error {
	var opts Options
	if c, ok := target.(Configurer); ok {
		opts = c.Konfig()
	}

	b := New().WithEnv(opts.EnvPrefix)
	if opts.AllowConfig {
		for _, name := range configFileNames {
			if _, err := os.Stat(name); err == nil {
				b = b.WithFile(name)
				break
			}
		}
	}
	if opts.AllowCli {
		b = b.WithCli()
	}
	return b.Build(target)
}
