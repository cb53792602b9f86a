// Package catalog loads named pipelines declared in CUE and compiles each
// into its canonical filter/map form.
//
// A catalog directory holds one CUE package with a top-level "pipeline"
// struct:
//
//	pipeline: positive_squares: {
//		description: "keep positives, square them"
//		steps: ["filter{(element>0)}", "map{(element*element)}"]
//	}
//
// Steps are single calls. They are parsed one by one so errors point at
// the offending step in the CUE source, then the joined chain is
// reordered.
package catalog
