// Package scenario implements the declarative script runtime: ordered
// action / wait / assert / log steps executed sequentially against a
// live device engine.
//
// Scenarios load from YAML documents, from a one-line script form, or
// from the built-in registry. Execution is fail-fast: the first
// assertion mismatch or step error aborts the run and is reported with
// the expected versus observed value. A run should own the device
// exclusively to keep its assertions deterministic.
package scenario
