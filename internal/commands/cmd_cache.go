package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tick/internal/core/styles"
	"github.com/colonyops/tick/pkg/iojson"
)

type CacheCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
	pruneDays  int
}

func NewCacheCmd(flags *Flags) *CacheCmd {
	return &CacheCmd{flags: flags}
}

func (cmd *CacheCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "cache",
		Usage:     "Inspect and maintain the plan expansion cache",
		UsageText: "tick cache <stats|clean|prune>",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache directory and entry counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.stats,
			},
			{
				Name:   "clean",
				Usage:  "Remove all cache entries",
				Action: cmd.clean,
			},
			{
				Name:  "prune",
				Usage: "Remove cache entries older than a cutoff",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "days",
						Usage:       "age cutoff in days",
						Value:       30,
						Destination: &cmd.pruneDays,
					},
				},
				Action: cmd.prune,
			},
		},
	})

	return app
}

func (cmd *CacheCmd) stats(ctx context.Context, c *cli.Command) error {
	store := cmd.flags.Cache()
	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, stats)
	}

	out := c.Root().Writer
	fmt.Fprintf(out, "Cache directory: %s\n", store.Dir())
	fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "Total size: %d bytes\n", stats.TotalBytes)
	return nil
}

func (cmd *CacheCmd) clean(ctx context.Context, c *cli.Command) error {
	store := cmd.flags.Cache()
	if err := store.Clean(); err != nil {
		return fmt.Errorf("clean cache: %w", err)
	}
	fmt.Printf("%s %s\n", styles.SuccessStyle.Render("Cache cleared:"), store.Dir())
	return nil
}

func (cmd *CacheCmd) prune(ctx context.Context, c *cli.Command) error {
	store := cmd.flags.Cache()
	removed, err := store.Prune(time.Duration(cmd.pruneDays) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	fmt.Printf("%s removed %d entries older than %d days\n",
		styles.SuccessStyle.Render("Cache pruned:"), removed, cmd.pruneDays)
	return nil
}
