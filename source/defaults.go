package source

import (
	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

// Defaults contributes the textual `default` tag values declared in the
// schema. It sits at the lowest priority, so any other source overrides it.
type Defaults struct{}

// NewDefaults returns the tag-defaults source.
func NewDefaults() *Defaults { return &Defaults{} }

// Kind reports Default (priority 0, lowest).
func (d *Defaults) Kind() Kind { return KindDefault }

// Collect inserts a String leaf for every non-skipped field carrying a
// default tag. Defaults stay textual so they pass through the same typed
// coercion as environment values.
func (d *Defaults) Collect(sch *schema.Schema) (value.Value, error) {
	tree := value.Object()
	for i := range sch.Fields {
		f := &sch.Fields[i]
		if f.Skip || !f.HasDefault {
			continue
		}
		tree.SetPath(f.Path, value.String(f.Default))
	}
	return tree, nil
}
