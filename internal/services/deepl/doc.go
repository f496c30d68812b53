// Package deepl implements the text translation client used by the dubbing
// pipeline. Requests go to POST /v2/translate with the DeepL-Auth-Key header
// and are retried on rate limits, server errors and timeouts.
package deepl
