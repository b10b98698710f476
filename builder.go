package konfig

import (
	"errors"
	"fmt"
	"reflect"

	"dario.cat/mergo"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/konfig/merge"
	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/source"
	"github.com/MKhiriev/konfig/value"
)

// Check inspects the merged tree before typed projection. Checks must not
// mutate the tree; this is a usage contract, not mechanically enforced.
type Check func(tree value.Value) error

// Builder assembles a configuration pipeline from multiple sources and
// finalizes it with Build. Configuration errors raised while registering
// sources are accumulated and surfaced once, when Build is called.
//
// Source priority is fixed: defaults < file < environment < cli.
type Builder struct {
	sources  []source.Source
	strategy merge.Strategy
	checks   []Check
	defaults any
	prefix   string
	log      zerolog.Logger
	err      error
}

// New returns a Builder with the Deep merge strategy and a silent logger.
func New() *Builder {
	return &Builder{
		sources:  make([]source.Source, 0, 4),
		strategy: merge.Deep,
		log:      zerolog.Nop(),
	}
}

// WithMergeStrategy selects how source trees combine at composite nodes.
func (b *Builder) WithMergeStrategy(strategy merge.Strategy) *Builder {
	b.strategy = strategy
	return b
}

// WithLogger attaches a zerolog logger for debug telemetry of the pipeline
// stages. The default logger discards everything.
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// WithEnv registers the process environment as a source. The prefix leads
// every derived external name: with prefix "APP", field Port reads APP_PORT.
func (b *Builder) WithEnv(prefix string) *Builder {
	b.prefix = prefix
	b.sources = append(b.sources, source.NewEnv())
	return b
}

// WithEnvSnapshot registers an explicit variable set instead of the process
// environment, keeping builds reproducible under synthetic inputs.
func (b *Builder) WithEnvSnapshot(prefix string, vars map[string]string) *Builder {
	b.prefix = prefix
	b.sources = append(b.sources, source.NewEnvSnapshot(vars))
	return b
}

// WithFile registers a mandatory configuration file, its format derived
// from the extension (.json, .yaml, .yml, .toml).
func (b *Builder) WithFile(path string) *Builder {
	f, err := source.NewFile(path)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("%w: %v", ErrConfig, err))
		return b
	}
	b.sources = append(b.sources, f)
	return b
}

// WithFileOptional registers a configuration file that contributes an
// empty tree when absent instead of failing the build.
func (b *Builder) WithFileOptional(path string) *Builder {
	f, err := source.NewFileOptional(path)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("%w: %v", ErrConfig, err))
		return b
	}
	b.sources = append(b.sources, f)
	return b
}

// WithFileFormat registers a mandatory configuration file with an explicit
// format, bypassing extension detection.
func (b *Builder) WithFileFormat(path string, format source.Format) *Builder {
	b.sources = append(b.sources, source.NewFileFormat(path, format))
	return b
}

// WithCli registers the process argument list as a source.
func (b *Builder) WithCli() *Builder {
	b.sources = append(b.sources, source.NewCli())
	return b
}

// WithCliArgs registers an explicit argument list instead of os.Args.
func (b *Builder) WithCliArgs(args []string) *Builder {
	b.sources = append(b.sources, source.NewCliArgs(args))
	return b
}

// WithDefault registers a typed defaults struct (a pointer to the target
// type) whose non-zero fields seed the merge at the lowest priority.
// Successive calls are combined, later calls overriding earlier ones for
// the fields they set.
func (b *Builder) WithDefault(defaults any) *Builder {
	rv := reflect.ValueOf(defaults)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		b.err = errors.Join(b.err, fmt.Errorf("%w: defaults must be a non-nil struct pointer", ErrSchema))
		return b
	}
	if b.defaults == nil {
		b.defaults = defaults
		return b
	}
	if err := mergo.Merge(b.defaults, rv.Elem().Interface(), mergo.WithOverride); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("%w: merging defaults: %v", ErrSchema, err))
	}
	return b
}

// ValidateWith registers a check to run against the merged tree. Checks
// run in registration order and the pipeline stops at the first failure.
func (b *Builder) ValidateWith(check Check) *Builder {
	b.checks = append(b.checks, check)
	return b
}

// Build runs the pipeline: schema construction, source collection in
// ascending priority order, merge, validation, and typed projection into
// target (a non-nil struct pointer). Either target is fully populated or
// it is left untouched and the first error is returned.
func (b *Builder) Build(target any) error {
	tree, sch, err := b.buildTree(target)
	if err != nil {
		return err
	}
	if err := project(tree, sch, target); err != nil {
		b.log.Debug().Err(err).Msg("typed projection failed")
		return err
	}
	b.log.Debug().Str("type", sch.Type.String()).Msg("configuration built")
	return nil
}

// BuildValue runs the pipeline up to and including validation and returns
// the merged tree without projecting it, for callers that want dynamic
// access.
func (b *Builder) BuildValue(target any) (value.Value, error) {
	tree, _, err := b.buildTree(target)
	return tree, err
}

func (b *Builder) buildTree(target any) (value.Value, *schema.Schema, error) {
	var zero value.Value
	if b.err != nil {
		return zero, nil, fmt.Errorf("building config: %w", b.err)
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return zero, nil, fmt.Errorf("%w: target must be a non-nil struct pointer", ErrSchema)
	}

	sch, err := schema.Build(rv.Type().Elem(), schema.Options{Prefix: b.prefix})
	if err != nil {
		return zero, nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	trees, err := b.collect(sch)
	if err != nil {
		return zero, nil, err
	}

	merged := merge.NewMerger(b.strategy).Merge(trees)
	b.log.Debug().
		Stringer("strategy", b.strategy).
		Int("sources", len(trees)).
		Msg("merged configuration sources")

	for _, check := range b.checks {
		if err := check(merged); err != nil {
			b.log.Debug().Err(err).Msg("validation check rejected configuration")
			return zero, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return merged, sch, nil
}

// collect gathers every source's partial tree, tagging each with its
// priority. Tag defaults and typed defaults sit at the lowest priority, in
// that order, so an explicit defaults struct beats a default tag.
func (b *Builder) collect(sch *schema.Schema) ([]merge.Tree, error) {
	trees := make([]merge.Tree, 0, len(b.sources)+2)

	srcs := append([]source.Source{source.NewDefaults()}, b.sources...)
	for _, src := range srcs {
		v, err := src.Collect(sch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kindError(src.Kind()), err)
		}
		b.log.Debug().
			Stringer("source", src.Kind()).
			Int("priority", src.Kind().Priority()).
			Msg("collected configuration source")
		trees = append(trees, merge.Tree{Priority: src.Kind().Priority(), Value: v})
	}

	if b.defaults != nil {
		v, err := value.EncodeNonZero(b.defaults)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding defaults: %v", ErrSerialization, err)
		}
		// Appended last among priority-0 trees: the stable sort keeps it
		// after tag defaults, so an explicit defaults struct wins.
		trees = append(trees, merge.Tree{Priority: source.KindDefault.Priority(), Value: v})
	}
	return trees, nil
}

// kindError maps a source kind to its error sentinel.
func kindError(k source.Kind) error {
	switch k {
	case source.KindFile:
		return ErrConfig
	case source.KindEnvironment:
		return ErrEnvironment
	case source.KindCli:
		return ErrCli
	default:
		return ErrSerialization
	}
}
