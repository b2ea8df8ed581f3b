// Command feedctl is the operator CLI: schema migrations, demo data and
// read-only listings against the configured database.
package main

import (
	"context"
	"fmt"
	"os"

	"minifeed/internal/bootstrap"
	"minifeed/internal/config"
	"minifeed/internal/middleware"

	"github.com/spf13/cobra"
)

// cli carries the state shared by every subcommand.
type cli struct {
	output     string
	loadConfig func() (*config.Config, error)
}

func newRootCmd(loader func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loader}

	root := &cobra.Command{
		Use:           "feedctl",
		Short:         "Operate a minifeed database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch c.output {
			case formatTable, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("unknown --output %q (want table, json or yaml)", c.output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.output, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		c.newMigrateCmd(),
		c.newSeedCmd(),
		c.newUsersCmd(),
		c.newPostsCmd(),
	)
	return root
}

// open connects to the database. Only migrate skips the schema step.
func (c *cli) open(ctx context.Context, skipSchema bool) (*bootstrap.Runtime, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	middleware.InitLogger(cfg.Env, os.Stderr)
	return bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipSchema: skipSchema})
}

func (c *cli) printer(cmd *cobra.Command) *printer {
	return &printer{format: c.output, w: cmd.OutOrStdout()}
}

func main() {
	if err := newRootCmd(config.LoadConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
