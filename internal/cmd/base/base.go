// Package base carries the state shared by every CLI command and a
// small flag-set wrapper that renders help text.
package base

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by all commands.
type Command struct {
	// Log is the root logger; commands derive named loggers from it.
	Log hclog.Logger

	// UI is the terminal UI for human-readable output.
	UI cli.Ui
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet returns a flag set that swallows its own error output;
// commands report parse failures through the UI instead.
func NewFlagSet(name string) *FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: fs}
}

// Help renders the defined flags as an indented usage block.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("Options:\n")
	f.VisitAll(func(fl *flag.Flag) {
		line := fmt.Sprintf("  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			line += fmt.Sprintf(" (default %q)", fl.DefValue)
		}
		buf.WriteString(line + "\n")
		if fl.Usage != "" {
			buf.WriteString("      " + fl.Usage + "\n")
		}
	})
	return buf.String()
}
