// Package ffprobe wraps ffprobe's JSON output.
//
// The dubbing pipeline uses it to read the input duration before work starts
// and to verify the remuxed output carries video plus exactly one audio
// stream.
package ffprobe
