// Package harness runs YAML test suites of chains through the engine and
// checks each rewrite.
//
// # Suite Format
//
//	name: pushdown
//	description: "filters move in front of maps"
//	batch_token: batch-pushdown   # optional
//	raw_map: false                # optional
//	samples: { min: -20, max: 20 } # optional, for verify
//	cases:
//	  - name: shift_then_filter
//	    input: "map{(element+10)}%>%filter{(element>10)}"
//	    expect: "filter{(element>0)}%>%map{(10+element)}"
//	    verify: true
//	  - name: arithmetic_filter
//	    input: "filter{(element+10)}"
//	    error: type
//
// A case either expects an exact output, expects an error (syntax, type or
// invariant), or only asks for verification. Verification runs the input
// and the rewrite over every sample and requires identical results.
//
// # Determinism
//
// Every suite runs in a fresh in-memory store with a fixed batch token,
// so seqs, rewrite IDs and traces are identical across runs. The batch is
// replayed after it runs and any mismatch fails the suite. RunWithGolden
// compares the trace against testdata/golden/<name>.golden.
package harness
