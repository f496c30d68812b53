// Package audio holds the in-memory PCM model used by the dubbing pipeline:
// mono 16-bit buffers, silence padding, saturating mix and gain, linear
// resampling, WAV encode/decode via go-audio and MP3 decode via go-mp3.
package audio
