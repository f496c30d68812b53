// Package logs reads the JSON run log written under log_dir: tailing it,
// following new lines and filtering records by run ID or level.
package logs
