// Package elevenlabs implements the speech synthesis client. Each call posts
// the translated text to the text-to-speech stream endpoint and decodes the
// returned PCM, WAV or MP3 payload into an audio.Buffer.
package elevenlabs
