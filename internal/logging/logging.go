// Package logging configures the commonlog backend shared by the myst
// packages.
package logging

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Configure sets the maximum level from a verbosity count (0 errors and
// warnings only, 1 info, 2 and above debug) and sends output to file, or
// to stderr when file is empty. A negative verbosity disables logging.
func Configure(verbosity int, file string) {
	if verbosity < 0 {
		commonlog.Configure(-1, nil)
		return
	}
	var path *string
	if file != "" {
		path = &file
	}
	commonlog.Configure(verbosity, path)
}

// Verbosity picks the effective level: a -v count given on the command
// line wins over the configured one.
func Verbosity(flagCount, configured int) int {
	if flagCount > 0 {
		return flagCount
	}
	return configured
}
