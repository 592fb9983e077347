package service

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"yatube/app/logging"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newGroupCommand(dbPath *string) *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}

	var title, slug, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				g, err := services.NewGroupService(repo.Groups).Create(title, slug, description)
				if errors.Is(err, repositories.ErrConflict) {
					return errors.Errorf("group %q already exists", slug)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %q created with id %d\n", g.Slug, g.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title")
	create.Flags().StringVar(&slug, "slug", "", "unique address of the group")
	create.Flags().StringVar(&description, "description", "", "group description")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("slug")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				groups, err := services.NewGroupService(repo.Groups).List()
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No groups")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tTITLE\tPOSTS")
				for _, g := range groups {
					n, err := repo.Posts.Count(repositories.PostFilter{GroupID: g.ID})
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", g.ID, g.Slug, g.Title, n)
				}
				return w.Flush()
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group, keeping its posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				err := services.NewGroupService(repo.Groups).Delete(args[0])
				if errors.Is(err, repositories.ErrNotFound) {
					return errors.Errorf("group %q not found", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Group %q deleted\n", args[0])
				return nil
			})
		},
	}

	group.AddCommand(create, list, remove)
	return group
}

func newUserCommand(dbPath *string) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	remove := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account with its posts and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				users := services.NewUserService(repo.Users, repo.Sessions, 0, logging.Logger)
				err := users.DeleteUser(args[0])
				switch {
				case errors.Is(err, repositories.ErrNotFound):
					return errors.Errorf("user %q not found", args[0])
				case errors.Is(err, repositories.ErrProtected):
					return errors.Errorf("user %q still has follow relations; remove them first", args[0])
				case err != nil:
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %q deleted\n", args[0])
				return nil
			})
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				users, err := services.NewUserService(repo.Users, repo.Sessions, 0, logging.Logger).List()
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tPOSTS\tJOINED")
				for _, u := range users {
					n, err := repo.Posts.Count(repositories.PostFilter{AuthorID: u.ID})
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", u.ID, u.Username, u.FullName(), n, humanize.Time(u.DateJoined))
				}
				return w.Flush()
			})
		},
	}

	user.AddCommand(list, remove)
	return user
}

func newPostCommand(dbPath *string) *cobra.Command {
	post := &cobra.Command{
		Use:   "post",
		Short: "Moderate posts",
	}
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post with its comments and image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			media, err := openMedia(cfg)
			if err != nil {
				return err
			}
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				posts := services.NewPostService(repo.Posts, repo.Comments, repo.Users, repo.Groups, media, cfg.PageSize, logging.Logger)
				err := posts.DeletePost(id)
				if errors.Is(err, repositories.ErrNotFound) {
					return errors.Errorf("post %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Post %d deleted\n", id)
				return nil
			})
		},
	}
	post.AddCommand(remove)
	return post
}

func newCommentCommand(dbPath *string) *cobra.Command {
	comment := &cobra.Command{
		Use:   "comment",
		Short: "Moderate comments",
	}
	list := &cobra.Command{
		Use:   "list <post-id>",
		Short: "List the comments of a post, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				comments, err := services.NewCommentService(repo.Comments, repo.Posts).ListPostComments(postID)
				if errors.Is(err, repositories.ErrNotFound) {
					return errors.Errorf("post %d not found", postID)
				}
				if err != nil {
					return err
				}
				if len(comments) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No comments")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tAUTHOR\tCREATED\tTEXT")
				for _, c := range comments {
					fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", c.ID, c.AuthorID, humanize.Time(c.CreatedAt), excerpt(c.Text))
				}
				return w.Flush()
			})
		},
	}
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepository(*dbPath, func(repo *repositories.Repository) error {
				err := services.NewCommentService(repo.Comments, repo.Posts).DeleteComment(id)
				if errors.Is(err, repositories.ErrNotFound) {
					return errors.Errorf("comment %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Comment %d deleted\n", id)
				return nil
			})
		},
	}
	comment.AddCommand(list, remove)
	return comment
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// excerpt keeps table rows on one line.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return text
}

// withRepository opens the configured database for the duration of fn.
func withRepository(dbPath string, fn func(*repositories.Repository) error) error {
	cfg, err := loadConfig(dbPath)
	if err != nil {
		return err
	}
	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}
