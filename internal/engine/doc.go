// Package engine runs the chain rewriter over batches of input lines.
//
// Each batch gets a token from a BatchTokenGenerator and each line gets a
// seq from the logical Clock. Results go to the rewrite log in the store,
// which doubles as a memo: a line whose text and mode were rewritten
// before is answered from the earliest recorded result.
//
// Ordering:
// Seqs are strictly increasing across batches because Resume starts the
// clock after the highest seq in the log. Wall-clock time is never used.
//
// Failures:
// A line that does not parse or does not type-check is an outcome, not an
// error. It is logged with its kind ("SYNTAX ERROR", "TYPE ERROR" or
// "INVARIANT ERROR") and the batch continues. Only store failures stop a
// batch; they surface as *RuntimeError.
//
// Replay:
// Replay recomputes a recorded batch and reports every row whose result
// differs from the log.
package engine
