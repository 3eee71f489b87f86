// Package command implements the sfrag subcommands and the registry main
// dispatches them through.
package command

import (
	"context"
	"flag"
	"io"
)

// Command is a subcommand. main parses flags registered by SetupFlags, then
// calls Execute with the remaining arguments.
type Command interface {
	Name() string
	Description() string
	Usage() string
	SetupFlags(fs *flag.FlagSet)
	// Execute runs the command. Long-running commands stop when ctx is done.
	Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// BaseCommand supplies the descriptive methods of Command, and a SetupFlags that
// registers nothing.
type BaseCommand struct {
	name, description, usage string
}

func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string                { return c.name }
func (c *BaseCommand) Description() string         { return c.description }
func (c *BaseCommand) Usage() string               { return c.usage }
func (c *BaseCommand) SetupFlags(fs *flag.FlagSet) {}
