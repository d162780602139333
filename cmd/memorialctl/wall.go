package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stine-ri/wings-of-memory/internal/memorywall"
)

// readImages loads files as base64 data URLs.
func readImages(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", p, err)
		}
		mime := http.DetectContentType(raw)
		out = append(out, "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(raw))
	}
	return out, nil
}

func (a *app) printRecord(rec memorywall.MemoryRecord, liked, mine bool) {
	flags := ""
	if liked {
		flags += " ♥"
	}
	if mine {
		flags += " (yours)"
	}
	a.printf("%s  %s  %s%s\n", rec.ID, rec.Date, rec.Author, flags)
	a.printf("    %s\n", rec.Text)
	if len(rec.Images) > 0 {
		a.printf("    images: %s\n", strings.Join(rec.Images, ", "))
	}
}

func newWallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "wall", Short: "Manage memories on the local memory wall"}

	var text, author string
	var images []string
	add := &cobra.Command{
		Use:   "add",
		Short: "Share a memory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payloads, err := readImages(images)
			if err != nil {
				return err
			}
			w := a.wall()
			rec, err := w.Submit(cmd.Context(), memorywall.Draft{Text: text, Author: author, Images: payloads})
			if err != nil {
				return err
			}
			a.printRecord(rec, false, true)
			return nil
		},
	}
	add.Flags().StringVarP(&text, "text", "t", "", "Memory text (required)")
	add.Flags().StringVar(&author, "author", "", "Author name (default Anonymous)")
	add.Flags().StringSliceVar(&images, "image", nil, "Image file to attach (repeatable)")
	_ = add.MarkFlagRequired("text")

	var oldest bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List memories, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := a.loadWall(cmd.Context())
			order := memorywall.SortRecent
			if oldest {
				order = memorywall.SortOldest
			}
			recs := w.List(cmd.Context(), order)
			if len(recs) == 0 {
				a.printf("No memories shared yet.\n")
				return nil
			}
			likes := w.Likes(cmd.Context())
			for _, rec := range recs {
				a.printRecord(rec, likes[rec.ID], w.CanModify(cmd.Context(), rec))
			}
			return nil
		},
	}
	list.Flags().BoolVar(&oldest, "oldest", false, "Oldest first")

	var editText, editAuthor string
	var keep, editImages []string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a memory you shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := a.wall()
			cur, err := w.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d := memorywall.Draft{Text: cur.Text, Author: cur.Author, KeepImages: cur.Images}
			if cmd.Flags().Changed("text") {
				d.Text = editText
			}
			if cmd.Flags().Changed("author") {
				d.Author = editAuthor
			}
			if cmd.Flags().Changed("keep-image") {
				d.KeepImages = keep
			}
			if d.Images, err = readImages(editImages); err != nil {
				return err
			}
			rec, err := w.Edit(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			a.printRecord(rec, false, true)
			return nil
		},
	}
	edit.Flags().StringVarP(&editText, "text", "t", "", "New text")
	edit.Flags().StringVar(&editAuthor, "author", "", "New author name")
	edit.Flags().StringSliceVar(&keep, "keep-image", nil, "Image ID to keep; when given, unlisted images are removed")
	edit.Flags().StringSliceVar(&editImages, "image", nil, "Image file to add (repeatable)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memory you shared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wall().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("deleted %s\n", args[0])
			return nil
		},
	}

	like := &cobra.Command{
		Use:   "like <id>",
		Short: "Toggle your like on a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			liked, err := a.wall().ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printf("%s liked=%t\n", args[0], liked)
			return nil
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.wall().Sweep(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("removed %d expired image(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(add, list, edit, del, like, sweep)
	return cmd
}

func newImageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "image", Short: "Inspect stored images"}
	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <id>",
		Short: "Print the data of an image, or nothing when it expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := a.loadWall(cmd.Context()).Store().ResolveImage(cmd.Context(), args[0])
			if data == "" {
				return fmt.Errorf("image %s is unavailable or expired", args[0])
			}
			a.printf("%s\n", data)
			return nil
		},
	})
	return cmd
}
