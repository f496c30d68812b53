// Package language normalizes language codes for the external services the
// dubbing pipeline talks to.
//
// WhisperX wants lowercase ISO 639-1 codes, DeepL wants its own uppercase
// target codes (with regional variants for English, Portuguese and Chinese).
// Inputs are parsed as BCP 47 tags so "en-gb", "EN_GB", "english" and "pt-BR"
// all resolve predictably.
package language
