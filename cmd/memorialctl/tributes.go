package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/internal/tribute"
)

func (a *app) board(cmd *cobra.Command, memorial string) (*tribute.Board, error) {
	if memorial == "" {
		return nil, errors.New("--memorial is required")
	}
	c, err := a.client(cmd.Context())
	if err != nil {
		return nil, err
	}
	return tribute.NewBoard(memorial, c, a.sessions(), a.kv, tribute.WithLogger(a.log)), nil
}

// userError keeps the underlying error for errors.Is while printing the
// friendly text.
type userError struct{ err error }

func (e userError) Error() string { return tribute.UserMessage(e.err) }
func (e userError) Unwrap() error { return e.err }

func newTributesCmd(a *app) *cobra.Command {
	var memorial string
	cmd := &cobra.Command{Use: "tributes", Short: "Read and write tributes on a public memorial"}
	cmd.PersistentFlags().StringVarP(&memorial, "memorial", "m", "", "Memorial slug or ID (required)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tributes, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.board(cmd, memorial)
			if err != nil {
				return err
			}
			ts, err := b.List(cmd.Context())
			if err != nil {
				return userError{err}
			}
			if len(ts) == 0 {
				a.printf("No tributes yet.\n")
				return nil
			}
			sid := b.Session(cmd.Context())
			for _, t := range ts {
				flags := ""
				if b.Liked(cmd.Context(), t.ID) {
					flags += " ♥"
				}
				if tribute.CanModify(t, sid) {
					flags += " (yours)"
				}
				a.printf("%s  %s  %s%s\n    %s\n", t.ID, t.CreatedAt.Format("January 2, 2006"), t.AuthorName, flags, t.Message)
			}
			return nil
		},
	}

	var author, message string
	post := &cobra.Command{
		Use:   "post",
		Short: "Leave a tribute",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.board(cmd, memorial)
			if err != nil {
				return err
			}
			t, err := b.Post(cmd.Context(), author, message)
			if err != nil {
				return userError{err}
			}
			a.printf("posted %s\n", t.ID)
			return nil
		},
	}
	post.Flags().StringVar(&author, "author", "", "Your name (default Anonymous)")
	post.Flags().StringVarP(&message, "message", "t", "", "Tribute text")

	var newMessage string
	edit := &cobra.Command{
		Use:   "edit <tribute-id>",
		Short: "Edit a tribute you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.board(cmd, memorial)
			if err != nil {
				return err
			}
			t, err := b.Find(cmd.Context(), args[0])
			if err != nil {
				return userError{err}
			}
			if _, err := b.Edit(cmd.Context(), t, newMessage); err != nil {
				return userError{err}
			}
			a.printf("updated %s\n", t.ID)
			return nil
		},
	}
	edit.Flags().StringVarP(&newMessage, "message", "t", "", "New text")

	del := &cobra.Command{
		Use:   "delete <tribute-id>",
		Short: "Delete a tribute you wrote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.board(cmd, memorial)
			if err != nil {
				return err
			}
			t, err := b.Find(cmd.Context(), args[0])
			if err != nil {
				return userError{err}
			}
			if err := b.Delete(cmd.Context(), t); err != nil {
				return userError{err}
			}
			a.printf("deleted %s\n", t.ID)
			return nil
		},
	}

	like := &cobra.Command{
		Use:   "like <tribute-id>",
		Short: "Toggle your like on a tribute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.board(cmd, memorial)
			if err != nil {
				return err
			}
			liked, err := b.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("%s liked=%t\n", args[0], liked)
			return nil
		},
	}

	cmd.AddCommand(list, post, edit, del, like)
	return cmd
}
