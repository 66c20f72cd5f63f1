// Package output renders command results as tables, JSON or YAML.
//
// Results reach the shell either as api/v1 structs (in-process) or as
// json.RawMessage (over HTTP). Formatters run Normalize first so both print
// the same way.
package output
