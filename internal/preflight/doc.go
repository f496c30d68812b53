// Package preflight provides readiness checks that run before a dubbing run
// spends any network calls.
//
// These checks run in two contexts:
//   - The dub command calls Run, which fails fast on a missing input, an
//     unwritable work or output directory, or a missing binary.
//   - The CLI "dubber status" command uses the individual check functions to
//     display dependency and credential health.
package preflight
