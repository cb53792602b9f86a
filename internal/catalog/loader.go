package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/callchain/internal/chain"
	"github.com/roach88/callchain/internal/ir"
)

// LoadMode controls how errors are handled while loading a catalog.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadErrorKind categorizes catalog load failures.
type LoadErrorKind string

const (
	ErrNotFound    LoadErrorKind = "not_found"
	ErrScan        LoadErrorKind = "scan_failed"
	ErrNoFiles     LoadErrorKind = "no_files"
	ErrLoadFailed  LoadErrorKind = "load_failed"
	ErrBuildFailed LoadErrorKind = "build_failed"
	ErrCompile     LoadErrorKind = "compile_failed"
	ErrEmpty       LoadErrorKind = "no_pipelines"
)

// LoadResult holds the pipelines compiled from a catalog directory in
// declaration order.
type LoadResult struct {
	Pipelines []ir.Pipeline
	CUEValue  cue.Value
	FileCount int
}

// LoadError is a catalog load failure, positioned in CUE source when the
// failure came from a pipeline.
type LoadError struct {
	Kind    LoadErrorKind
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *LoadError in err's chain.
func KindOf(err error) (LoadErrorKind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

// Load compiles every pipeline declared under the top-level "pipeline"
// field of the CUE package in dir.
//
// In LoadModeFailFast the first compile error ends the load. In
// LoadModeCollectAll every pipeline is attempted and all errors are
// returned alongside the pipelines that did compile.
func Load(dir string, mode LoadMode, opts ...chain.Option) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Kind: ErrNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Kind: ErrNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err), Err: err}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Kind: ErrNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Kind: ErrScan, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Kind: ErrNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Kind: ErrLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Kind: ErrLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Err: inst.Err}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Kind: ErrBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Err: err}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}
	var errs []error

	pipelinesVal := value.LookupPath(cue.ParsePath("pipeline"))
	if pipelinesVal.Exists() {
		iter, err := pipelinesVal.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Kind: ErrCompile, Message: fmt.Sprintf("iterating pipelines: %v", err), Err: err})
			return result, errs
		}
		for iter.Next() {
			p, err := CompilePipeline(iter.Value(), opts...)
			if err != nil {
				errs = append(errs, convertCompileError(err, "pipeline."+iter.Label()))
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			result.Pipelines = append(result.Pipelines, *p)
		}
	}

	if len(result.Pipelines) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Kind: ErrEmpty, Message: "no pipelines found in catalog"})
	}
	return result, errs
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, path string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Kind:    ErrCompile,
			Message: fmt.Sprintf("%s: %s: %s", path, ce.Field, ce.Message),
			Pos:     ce.Pos,
			Err:     err,
		}
	}
	return &LoadError{
		Kind:    ErrCompile,
		Message: fmt.Sprintf("%s: %v", path, err),
		Err:     err,
	}
}
