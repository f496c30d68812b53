// Package whisperx is the segment source of the dubbing pipeline.
//
// It runs WhisperX through uvx against the extracted mono 16 kHz audio and
// loads the resulting JSON into ordered, 1-indexed segments. The same loader
// reads pre-made segment files supplied with --segments, so a run can skip
// transcription entirely.
//
// Command execution goes through a replaceable runner so tests never spawn
// Python.
package whisperx
