// Command example shows the two ways to load configuration: the one-call
// Load path driven by struct declarations, and the explicit Builder pipeline
// with files, validation, and a custom merge strategy.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/konfig"
	"github.com/MKhiriev/konfig/value"
)

type Config struct {
	DatabaseURL string        `default:"postgres://localhost/app"`
	Port        uint16        `default:"8080"`
	Debug       bool          `default:"false"`
	Timeout     time.Duration `default:"30s"`
	Server      struct {
		Host string `default:"localhost"`
	}
}

func (Config) Konfig() konfig.Options {
	return konfig.Options{EnvPrefix: "APP", AllowCli: true, AllowConfig: true}
}

func main() {
	// One call: defaults < discovered config file < APP_* environment
	// variables < --app-* flags.
	var cfg Config
	if err := konfig.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	fmt.Printf("loaded: %+v\n", cfg)

	// The same thing spelled out, with a validation check on the merged
	// tree before it is projected into the struct.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)

	var explicit Config
	err := konfig.New().
		WithLogger(log).
		WithFileOptional("config.yaml").
		WithEnv("APP").
		WithCli().
		ValidateWith(func(tree value.Value) error {
			if _, ok := tree.Get("database_url"); !ok {
				return fmt.Errorf("database_url must be set")
			}
			return nil
		}).
		Build(&explicit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build:", err)
		os.Exit(1)
	}
	fmt.Printf("built: %+v\n", explicit)
}
