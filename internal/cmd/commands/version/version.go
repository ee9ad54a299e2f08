package version

import (
	"github.com/hearthly/hearth/internal/cmd/base"
	"github.com/hearthly/hearth/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: hearth version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
