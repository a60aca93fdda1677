// internal/application/migration/plan.go
package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	invdom "invoicer/internal/domain/invoice"
)

var ErrInvalidPlan = errors.New("migration: invalid plan")

// Step migrates one export into one collection.
type Step struct {
	File          string `mapstructure:"file"`
	Collection    string `mapstructure:"collection"`
	TransformName string `mapstructure:"transform"`

	// Transform overrides TransformName when set.
	Transform Transform `mapstructure:"-"`
}

// Plan is an ordered list of steps. Order matters: items reference
// invoices by legacy id, so invoices come first.
type Plan []Step

// DefaultPlan is the Supabase export layout.
func DefaultPlan() Plan {
	return Plan{
		{File: "invoices.json", Collection: invdom.CollectionInvoices, TransformName: TransformInvoice},
		{File: "items.json", Collection: invdom.CollectionItems, TransformName: TransformItem},
	}
}

// Resolve fills Transform from TransformName and validates each step.
func (p Plan) Resolve() (Plan, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidPlan)
	}
	out := make(Plan, len(p))
	for i, s := range p {
		s.File = strings.TrimSpace(s.File)
		s.Collection = strings.TrimSpace(s.Collection)
		if s.File == "" || s.Collection == "" {
			return nil, fmt.Errorf("%w: step %d needs file and collection", ErrInvalidPlan, i)
		}
		if s.Transform == nil {
			t, err := TransformByName(s.TransformName)
			if err != nil {
				return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidPlan, i, err)
			}
			s.Transform = t
		}
		out[i] = s
	}
	return out, nil
}

// LoadPlan reads steps from a YAML/JSON/TOML plan file:
//
//	steps:
//	  - file: invoices.json
//	    collection: invoices
//	    transform: invoice
//
// An empty path returns DefaultPlan. A named file that is missing is an error.
func LoadPlan(path string) (Plan, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPlan().Resolve()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPlan, path, err)
	}

	var steps []Step
	if err := v.UnmarshalKey("steps", &steps); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidPlan, path, err)
	}
	return Plan(steps).Resolve()
}
