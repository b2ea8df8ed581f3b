package main

import (
	"strconv"
	"time"

	"minifeed/internal/models"
	"minifeed/internal/repository"
	"minifeed/internal/service"

	"github.com/spf13/cobra"
)

func itoa(n int) string { return strconv.Itoa(n) }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (c *cli) newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Inspect accounts"}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts in signup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			identity := service.NewIdentityService(repository.NewUserRepository(rt.DB), rt.Config.BcryptCost, nil)
			users, err := identity.ListUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = []string{itoa(int(u.ID)), u.Username, u.DisplayName, formatTime(u.CreatedAt)}
			}
			if users == nil {
				users = []*models.User{}
			}
			return c.printer(cmd).print(users, []string{"ID", "USERNAME", "DISPLAY NAME", "CREATED"}, rows)
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "maximum accounts to show (0 = all)")
	list.Flags().IntVar(&offset, "offset", 0, "accounts to skip")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) newPostsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "posts", Short: "Inspect the feed"}

	var author string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			posts := service.NewPostService(repository.NewPostRepository(rt.DB), rt.Config.FeedPageSize, nil)
			q := service.FeedQuery{Limit: limit}
			var out []*models.Post
			if author != "" {
				out, err = posts.ListPostsByAuthor(cmd.Context(), author, q)
			} else {
				out, err = posts.ListFeed(cmd.Context(), q)
			}
			if err != nil {
				return err
			}

			rows := make([][]string, len(out))
			for i, p := range out {
				rows[i] = []string{
					itoa(int(p.ID)),
					p.AuthorUsername,
					truncate(p.Content, 48),
					strconv.FormatInt(p.LikeCount, 10),
					strconv.FormatInt(p.RepostCount, 10),
					formatTime(p.CreatedAt),
				}
			}
			return c.printer(cmd).print(out, []string{"ID", "AUTHOR", "CONTENT", "LIKES", "REPOSTS", "CREATED"}, rows)
		},
	}
	list.Flags().StringVar(&author, "author", "", "only posts by this username")
	list.Flags().IntVar(&limit, "limit", 20, "maximum posts to show (0 = all)")
	cmd.AddCommand(list)
	return cmd
}
