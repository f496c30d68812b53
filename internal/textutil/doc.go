// Package textutil normalizes transcribed segment text before translation.
package textutil
