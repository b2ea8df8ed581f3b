package main

import (
	"minifeed/internal/seed"

	"github.com/spf13/cobra"
)

func (c *cli) newSeedCmd() *cobra.Command {
	opts := seed.Options{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake users, posts and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			s, err := seed.NewSeeder(rt.DB, opts)
			if err != nil {
				return err
			}
			sum, err := s.Seed(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer(cmd).print(sum, []string{"USERS", "POSTS", "COMMENTS", "LIKES", "REPOSTS"}, [][]string{{
				itoa(sum.Users), itoa(sum.Posts), itoa(sum.Comments), itoa(sum.Likes), itoa(sum.Reposts),
			}})
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.NumUsers, "users", 10, "number of users to create")
	f.IntVar(&opts.NumPosts, "posts", 50, "number of posts to create")
	f.IntVar(&opts.NumComments, "comments", 100, "number of comments to create")
	f.IntVar(&opts.LikesPerPost, "likes", 5, "maximum likes per post")
	f.IntVar(&opts.RepostPercent, "repost-percent", 10, "share of posts that get a repost")
	f.IntVar(&opts.MaxDays, "days", 30, "spread timestamps over this many days")
	f.StringVar(&opts.Password, "password", seed.DefaultPassword, "password for every seeded account")
	f.BoolVar(&opts.SkipBcrypt, "fast-hash", false, "hash passwords at minimum bcrypt cost")
	f.Int64Var(&opts.RandSeed, "rand-seed", 0, "seed for the fake data generator (0 = random)")
	return cmd
}
