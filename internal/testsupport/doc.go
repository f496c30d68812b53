// Package testsupport builds isolated configurations, stub binaries and
// fixture files for dubber tests.
package testsupport
