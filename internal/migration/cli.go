package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// CLI prints the result of migration commands for an operator.
type CLI struct {
	migrator Migrator
	out      io.Writer
}

// NewCLI writes to stdout unless SetOutput is called.
func NewCLI(m Migrator) *CLI {
	return &CLI{migrator: m, out: os.Stdout}
}

func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// Run executes one of: up, down, steps, force, version, status.
// arg is the step count for steps and the version for force.
func (c *CLI) Run(ctx context.Context, command string, arg int) error {
	switch command {
	case "up":
		return c.apply(ctx, "Applying pending migrations", c.migrator.Up)
	case "down":
		return c.apply(ctx, "Rolling back last migration", c.migrator.Down)
	case "steps":
		return c.apply(ctx, fmt.Sprintf("Running %d migration step(s)", arg), func(ctx context.Context) error {
			return c.migrator.Steps(ctx, arg)
		})
	case "force":
		if err := c.migrator.Force(ctx, arg); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Version forced to %d\n", arg)
		return nil
	case "version":
		return c.version(ctx)
	case "status":
		return c.status(ctx)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func (c *CLI) apply(ctx context.Context, banner string, fn func(context.Context) error) error {
	fmt.Fprintln(c.out, banner+"...")
	if err := fn(ctx); err != nil {
		return err
	}
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Done. Current version: %d (%d pending)\n", info.CurrentVersion, info.PendingMigrations)
	return nil
}

func (c *CLI) version(ctx context.Context) error {
	v, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return err
	}
	if v == 0 {
		fmt.Fprintln(c.out, "No migrations applied yet.")
		return nil
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(c.out, "Current version: %d%s\n", v, suffix)
	return nil
}

func (c *CLI) status(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Fprintln(c.out, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	for _, s := range statuses {
		state := "pending"
		switch {
		case s.Dirty:
			state = "dirty"
		case s.Applied:
			state = "applied"
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	return w.Flush()
}
