// Package internal runs proof verification over whole statement databases.
//
// The checking itself lives in the subpackages: db holds the statement
// table, proof decodes plain and compressed proof text, unify matches
// assertion hypotheses against proof steps, and verify executes a proof on
// the stack machine. This package wires them into a batch engine.
//
// Key components:
//
// Engine: verifies the theorems of one table. It honors disabled rules and
// skipped labels, and consults a Cache keyed by a fingerprint of everything
// a verdict depends on.
//
// Cache: a bolt file holding one bucket of results per database.
//
// Metrics: prometheus counters over verdicts, unifications and cache hits.
//
// Watcher: re-runs verification when a database file changes on disk.
//
// Usage:
//
//	table, err := db.LoadFile("prop.yaml")
//	if err != nil {
//	    // handle error
//	}
//
//	engine, err := internal.NewEngine(table, nil, logger)
//	if err != nil {
//	    // handle error
//	}
//
//	for _, label := range engine.Theorems() {
//	    result, err := engine.Run(label)
//	    if err != nil {
//	        // handle error
//	    }
//	    fmt.Printf("%s: %s\n", result.Label, result.Verdict)
//	}
//
// This package is intended for internal use within the verifier and should
// not be imported by external packages.
package internal
