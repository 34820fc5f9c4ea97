// Package dump provides the --dump-ast / --dump-ir / --dump-asm debug
// surface of SPEC_FULL.md section 10.6: structured value dumps via
// github.com/davecgh/go-spew instead of ad hoc fmt.Printf tree walks.
package dump

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var config = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Value writes a labeled, structured dump of v to stderr, tagged with
// the stage name (e.g. "ast", "ir", "asm").
func Value(stage string, v interface{}) {
	fmt.Fprintf(os.Stderr, "-- dump: %s --\n", stage)
	config.Fdump(os.Stderr, v)
}
