// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations (DeepL, ElevenLabs, WhisperX).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names and segment indices for
//     logging.
//   - Structured error markers plus the Wrap helper so the CLI can report which
//     stage failed and what class of failure it was.
//
// Use these helpers when wiring new stage logic so error reporting and log
// fields stay uniform across the pipeline.
package services
