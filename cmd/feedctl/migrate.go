package main

import (
	"fmt"
	"strconv"

	"minifeed/internal/database"

	"github.com/spf13/cobra"
)

type migrationRow struct {
	Version int    `json:"version" yaml:"version"`
	Name    string `json:"name" yaml:"name"`
	Applied bool   `json:"applied" yaml:"applied"`
}

func (c *cli) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect SQL migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			if err := database.RunMigrations(cmd.Context(), rt.DB); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			rt, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			if err := database.RollbackMigration(cmd.Context(), rt.DB, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			status, err := database.GetSchemaStatus(cmd.Context(), rt.DB, rt.Config)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			applied := make(map[int]bool, len(status.AppliedVersions))
			for _, v := range status.AppliedVersions {
				applied[v] = true
			}

			var out []migrationRow
			var rows [][]string
			for _, m := range database.MigrationsFor(status.Dialect) {
				r := migrationRow{Version: m.Version, Name: m.Name, Applied: applied[m.Version]}
				out = append(out, r)
				rows = append(rows, []string{fmt.Sprintf("%06d", r.Version), r.Name, strconv.FormatBool(r.Applied)})
			}
			return c.printer(cmd).print(out, []string{"VERSION", "NAME", "APPLIED"}, rows)
		},
	})

	return cmd
}
