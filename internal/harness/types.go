package harness

// TraceEvent is one processed line of a suite, in seq order.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Case      string `json:"case"`
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Memoized  bool   `json:"memoized,omitempty"`
}

// Result is the outcome of running a suite.
type Result struct {
	// Pass is true when every case met its expectation.
	Pass bool `json:"pass"`

	// Batch is the token the suite ran under.
	Batch string `json:"batch"`

	// Trace holds every line in the order it was processed.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with no trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
