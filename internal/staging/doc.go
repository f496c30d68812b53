// Package staging owns the per-run scratch directories under work_dir:
// creating a Workspace for each run, removing it on exit, and sweeping run
// directories left behind by killed processes.
package staging
