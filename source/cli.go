package source

import (
	"os"
	"strings"

	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

// Cli reads configuration from a command-line argument list. The scanner is
// deliberately thin: it understands `--flag value`, `--flag=value`, bare
// boolean switches (`--verbose`), and single-character short flags. Tokens
// that are not flags are ignored; a full CLI grammar is the caller's
// business.
type Cli struct {
	args []string
}

// NewCli captures os.Args (without the program name).
func NewCli() *Cli {
	return NewCliArgs(os.Args[1:])
}

// NewCliArgs uses the given argument list instead of os.Args.
func NewCliArgs(args []string) *Cli {
	return &Cli{args: append([]string(nil), args...)}
}

// Kind reports Cli (priority 3, highest).
func (c *Cli) Kind() Kind { return KindCli }

// Collect scans the argument list into flag/value pairs and inserts a leaf
// for every pair whose flag resolves to a schema field. Flags with a value
// become String leaves; bare switches become Bool(true) leaves. Flags not
// present contribute nothing.
func (c *Cli) Collect(sch *schema.Schema) (value.Value, error) {
	tree := value.Object()
	for name, tok := range scanArgs(c.args) {
		f, ok := sch.FieldByFlag(name)
		if !ok || f.Skip {
			continue
		}
		if tok.isSwitch {
			tree.SetPath(f.Path, value.Bool(true))
		} else {
			tree.SetPath(f.Path, value.String(tok.text))
		}
	}
	return tree, nil
}

type cliToken struct {
	text     string
	isSwitch bool
}

// scanArgs pairs flags with their values. A flag followed by another flag
// of its own rank, or by nothing, is a boolean switch.
func scanArgs(args []string) map[string]cliToken {
	tokens := make(map[string]cliToken)
	for i := 0; i < len(args); i++ {
		arg := args[i]

		var name string
		long := false
		switch {
		case strings.HasPrefix(arg, "--"):
			name = strings.TrimPrefix(arg, "--")
			long = true
		case strings.HasPrefix(arg, "-") && len(arg) == 2:
			name = strings.TrimPrefix(arg, "-")
		default:
			continue
		}
		if name == "" {
			continue
		}

		if flag, val, ok := strings.Cut(name, "="); ok {
			tokens[flag] = cliToken{text: val}
			continue
		}
		if i+1 < len(args) {
			next := args[i+1]
			// Only another long flag ends a long flag's pair, so negative
			// numbers ("--offset -5") stay values.
			nextIsFlag := strings.HasPrefix(next, "--") || (!long && strings.HasPrefix(next, "-"))
			if !nextIsFlag {
				tokens[name] = cliToken{text: next}
				i++
				continue
			}
		}
		tokens[name] = cliToken{isSwitch: true}
	}
	return tokens
}
