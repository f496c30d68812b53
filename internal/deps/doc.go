// Package deps reports whether the external binaries dubber shells out to
// (ffmpeg, ffprobe, uvx) can be resolved.
package deps
