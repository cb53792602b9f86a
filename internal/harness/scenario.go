package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is a YAML scenario file: a named list of chain cases run as one
// batch.
type Suite struct {
	// Name uniquely identifies the suite. It names the golden file too.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description"`

	// BatchToken fixes the batch token. Defaults to "batch-<name>".
	BatchToken string `yaml:"batch_token,omitempty"`

	// RawMap runs the suite in raw-map mode.
	RawMap bool `yaml:"raw_map,omitempty"`

	// Samples bounds the integers used by verify cases. Defaults to [-20, 20].
	Samples *SampleRange `yaml:"samples,omitempty"`

	// Cases run in order, one line each.
	Cases []Case `yaml:"cases"`
}

// Case is one input chain and what it should produce.
type Case struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`

	// Expect is the exact rewritten text. Mutually exclusive with Error.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected rejection: syntax, type or invariant.
	Error string `yaml:"error,omitempty"`

	// Verify checks that the rewrite accepts and maps every sample the
	// same way the input does.
	Verify bool `yaml:"verify,omitempty"`
}

// SampleRange is an inclusive integer range.
type SampleRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Expected error names accepted in Case.Error.
const (
	ErrorSyntax    = "syntax"
	ErrorType      = "type"
	ErrorInvariant = "invariant"
)

var errorNames = []string{ErrorSyntax, ErrorType, ErrorInvariant}

// LoadSuite reads and parses a suite YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// FindSuites returns every .yaml and .yml file under dir, sorted.
func FindSuites(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if s.Samples != nil && s.Samples.Min > s.Samples.Max {
		return fmt.Errorf("samples: min %d is greater than max %d", s.Samples.Min, s.Samples.Max)
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if err := validateCase(c); err != nil {
			return fmt.Errorf("cases[%d]: %w", i, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func validateCase(c Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Expect != "" && c.Error != "" {
		return fmt.Errorf("expect and error are mutually exclusive")
	}
	if c.Error != "" {
		if !slices.Contains(errorNames, c.Error) {
			return fmt.Errorf("unknown error %q (want one of %s)", c.Error, strings.Join(errorNames, ", "))
		}
		if c.Verify {
			return fmt.Errorf("verify needs a case that rewrites successfully")
		}
	}
	return nil
}
