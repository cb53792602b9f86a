package ir

// Version constants for records and the optimizer.
const (
	// IRVersion is the record schema version. Part of every ChainHash.
	IRVersion = "1"

	// EngineVersion is the callchain optimizer version.
	EngineVersion = "0.1.0"
)

// ErrorKind values stored with failed rewrites. They match the one-line
// messages printed at the command boundary.
const (
	ErrorKindNone      = ""
	ErrorKindSyntax    = "SYNTAX ERROR"
	ErrorKindType      = "TYPE ERROR"
	ErrorKindInvariant = "INVARIANT ERROR"
)

// Rewrite modes. Raw keeps the fused map tree, canonical expands it.
const (
	ModeCanonical = "canonical"
	ModeRaw       = "raw"
)

// Rewrite is one processed input line as recorded in the store.
// Output is empty when ErrorKind is set.
type Rewrite struct {
	ID        string `json:"id"`
	Batch     string `json:"batch"`
	Seq       int64  `json:"seq"`
	InputHash string `json:"input_hash"`
	Mode      string `json:"mode"`
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Failed reports whether the rewrite ended in an error.
func (r Rewrite) Failed() bool {
	return r.ErrorKind != ErrorKindNone
}

// Pipeline is a compiled catalog entry. Output depends on Mode.
type Pipeline struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps"`
	Mode        string   `json:"mode"`
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	Hash        string   `json:"hash"`
}
