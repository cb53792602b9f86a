package catalog

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/ir"
	"github.com/roach88/callchain/internal/parser"
)

// CompilePipeline turns one CUE pipeline declaration into an ir.Pipeline.
//
// The value is the pipeline struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`pipeline: squares: { steps: ["map{(element*element)}"] }`)
//	p, err := CompilePipeline(v.LookupPath(cue.ParsePath("pipeline.squares")))
//
// Every step is parsed as a single call, then the whole chain is reordered
// with opts. A step that does not parse yields a *CompileError wrapping the
// *expr.Error, positioned at the step in the CUE source.
func CompilePipeline(v cue.Value, opts ...chain.Option) (*ir.Pipeline, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Pipeline{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = labelName(labels[len(labels)-1])
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, &CompileError{Field: "description", Message: "description must be a string", Pos: descVal.Pos()}
		}
		p.Description = desc
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{Field: "steps", Message: "steps is required", Pos: v.Pos()}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "steps", Message: "steps must be a list of strings", Pos: stepsVal.Pos()}
	}

	p.Steps = []string{}
	var c chain.Chain
	for i := 0; iter.Next(); i++ {
		stepVal := iter.Value()
		field := fmt.Sprintf("steps[%d]", i)

		text, err := stepVal.String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "step must be a string", Pos: stepVal.Pos()}
		}
		call, err := parser.ParseCall(text)
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: stepVal.Pos(), Err: err}
		}
		p.Steps = append(p.Steps, text)
		c = append(c, call)
	}

	out, err := chain.Reorder(c, opts...)
	if err != nil {
		return nil, &CompileError{Field: "steps", Message: err.Error(), Pos: stepsVal.Pos(), Err: err}
	}

	p.Input = strings.Join(p.Steps, chain.Separator)
	p.Output = out.String()
	p.Mode = ir.ModeCanonical
	if chain.UsesRawMap(opts...) {
		p.Mode = ir.ModeRaw
	}
	p.Hash, err = ir.PipelineHash(p.Name, p.Steps, p.Mode)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
	}
	return p, nil
}

// labelName returns a field label without CUE quoting, so
// pipeline: "my-pipe": {...} is named my-pipe.
func labelName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// CompileError is a pipeline compilation error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos

	// Err is the rewrite error behind the failure, if any.
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
