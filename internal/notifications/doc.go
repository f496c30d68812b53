// Package notifications posts run outcomes to an ntfy topic. With no topic
// configured every call is a no-op.
package notifications
