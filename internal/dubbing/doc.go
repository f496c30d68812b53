// Package dubbing turns a video's speech segments into a dubbed audio track
// and remuxes it over the original picture.
//
// The Scheduler runs one translate-then-synthesize unit per segment on a
// bounded worker pool. Units finish in any order; the Merger is the ordering
// barrier that mixes clips into the master track strictly by segment index,
// so the result never depends on worker timing. TranslationCache collapses
// repeated source text so each distinct line is translated once per run.
//
// Pipeline wires these to the external collaborators (ffmpeg, ffprobe,
// WhisperX, DeepL, ElevenLabs) and reports failures as *StageError values
// naming the stage that failed.
package dubbing
