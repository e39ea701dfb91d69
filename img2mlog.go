/*
Package img2mlog is a library for converting images into logic processor
programs that redraw the image on a linked display.
*/
package img2mlog

import "log"

// Converter turns images into programs, optionally caching the results.
type Converter struct {
	db     *ProgramDB
	logger *log.Logger
}

// New returns a Converter. db may be nil to disable caching.
func New(db *ProgramDB, logger *log.Logger) *Converter {
	return &Converter{
		db:     db,
		logger: logger,
	}
}
