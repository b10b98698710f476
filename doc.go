// Package konfig merges configuration values from defaults, files,
// environment variables, and command-line arguments into one canonical
// value tree, then projects that tree onto a typed configuration struct.
//
// Sources combine in a fixed priority order (higher wins for the same
// path):
//  1. Default values (struct tags or a defaults struct)
//  2. Config file (JSON, YAML, or TOML)
//  3. Environment variables
//  4. CLI arguments
//
// The main entry points are [Load] for one-call loading driven by struct
// tags, [New] for the full pipeline with explicit sources, merge
// strategies, and validation, and [FromEnv] for the environment-only fast
// path.
//
//	var cfg Config
//	err := konfig.New().
//	    WithMergeStrategy(merge.Deep).
//	    WithEnv("APP").
//	    WithFileOptional("config.yaml").
//	    WithCli().
//	    Build(&cfg)
package konfig
