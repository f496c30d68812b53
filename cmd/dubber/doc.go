// Package main hosts the dubber CLI.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the structured logger and hands work to internal/dubbing. Commands here
// only parse flags and render results; tables use go-pretty and machine
// output is JSON.
package main
