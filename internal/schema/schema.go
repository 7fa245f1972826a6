// Package schema validates dataset collateral against embedded CUE
// schemas before it is decoded into Go structs. Validating the raw
// bytes first turns shape mistakes into positioned schema messages
// instead of silently zero-valued fields.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed meta.cue
var metaCUE string

// ValidateMeta checks raw meta.json bytes against the #Meta schema.
// Returns nil when the document conforms.
func ValidateMeta(data []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(metaCUE, cue.Filename("meta.cue"))
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile metadata schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Meta"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Meta: %w", err)
	}

	expr, err := cuejson.Extract("meta.json", data)
	if err != nil {
		return fmt.Errorf("parse metadata JSON: %w", err)
	}
	docVal := ctx.BuildExpr(expr)
	if err := docVal.Err(); err != nil {
		return fmt.Errorf("build metadata value: %w", err)
	}

	unified := def.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("metadata does not match schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
