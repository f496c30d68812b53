// Package httpretry provides the bounded retry loop shared by the DeepL and
// ElevenLabs clients: exponential backoff, Retry-After support and
// classification of retryable HTTP statuses and network timeouts.
package httpretry
