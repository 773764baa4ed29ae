// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/draad/pkg/cli/cmds/frames"
)
