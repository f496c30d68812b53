// Package ffmpeg wraps the two ffmpeg invocations the dubbing pipeline
// needs: extracting mono PCM for transcription and remuxing the dubbed track
// back into the source video. Both go through a replaceable command runner.
package ffmpeg
