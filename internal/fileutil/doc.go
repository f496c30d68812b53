// Package fileutil holds file copy helpers shared by the pipeline.
package fileutil
