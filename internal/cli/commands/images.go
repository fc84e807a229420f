package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/listing"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/output"
	"github.com/art-vbst/art-admin/internal/cli/session"
)

// NewImagesCmd creates the images command group
func NewImagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage artwork images",
	}

	cmd.AddCommand(
		newImagesListCmd(app),
		newImagesUploadCmd(app),
		newImagesPrimaryCmd(app),
		newImagesDeleteCmd(app),
	)

	return cmd
}

func newImagesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <artwork-id>",
		Aliases: []string{"list"},
		Short:   "List an artwork's images",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImagesList(commandContext(cmd), app, args[0])
		},
	}
}

func runImagesList(ctx context.Context, app *App, artworkID string) error {
	if !listing.IsUUID(artworkID) {
		return fmt.Errorf("invalid artwork ID %q", artworkID)
	}

	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		images, err := c.Images(artworkID).List(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list images: %w", err)
		}

		if len(images) == 0 && printer.Format == output.FormatTable {
			fmt.Fprintln(app.Out, "No images found.")
			fmt.Fprintf(app.Out, "\nUpload one with: artadmin images upload %s <file>\n", artworkID)
			return nil
		}

		return printer.Print(images, func() *output.Table {
			table := &output.Table{Headers: []string{"ID", "MAIN", "SIZE", "URL"}}
			for _, img := range images {
				main := ""
				if img.IsMainImage {
					main = "✓"
				}
				size := "-"
				if img.ImageWidth != nil && img.ImageHeight != nil {
					size = fmt.Sprintf("%d×%d", *img.ImageWidth, *img.ImageHeight)
				}
				table.AddRow(img.ID, main, size, img.ImageURL)
			}
			return table
		})
	})
}

func newImagesUploadCmd(app *App) *cobra.Command {
	var main bool

	cmd := &cobra.Command{
		Use:   "upload <artwork-id> <file>",
		Short: "Upload an image for an artwork",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImagesUpload(commandContext(cmd), app, args[0], args[1], main)
		},
	}

	cmd.Flags().BoolVar(&main, "main", false, "Make this the artwork's main image")

	return cmd
}

func runImagesUpload(ctx context.Context, app *App, artworkID, path string, main bool) error {
	if !listing.IsUUID(artworkID) {
		return fmt.Errorf("invalid artwork ID %q", artworkID)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		img, err := c.UploadImage(ctx, artworkID, filepath.Base(path), file, main)
		if err != nil {
			notify.Error(app.notifier(), "Failed to upload image")
			return fmt.Errorf("failed to upload image: %w", err)
		}

		notify.SuccessWithLink(app.notifier(), "Image uploaded", img.ImageURL)
		return nil
	})
}

func newImagesPrimaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "primary <artwork-id> <image-id>",
		Short: "Toggle whether an image is the artwork's main image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImagesPrimary(commandContext(cmd), app, args[0], args[1])
		},
	}
}

func runImagesPrimary(ctx context.Context, app *App, artworkID, imageID string) error {
	if !listing.IsUUID(artworkID) {
		return fmt.Errorf("invalid artwork ID %q", artworkID)
	}
	if !listing.IsUUID(imageID) {
		return fmt.Errorf("invalid image ID %q", imageID)
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		img, err := c.Images(artworkID).Get(ctx, imageID, nil)
		if err != nil {
			return fmt.Errorf("failed to get image: %w", err)
		}
		if img.ArtworkID == "" {
			img.ArtworkID = artworkID
		}

		updated, err := c.TogglePrimaryImage(ctx, img)
		if err != nil {
			notify.Error(app.notifier(), "Failed to update image")
			return fmt.Errorf("failed to update image: %w", err)
		}

		notify.Success(app.notifier(), "Main image: "+strconv.FormatBool(updated.IsMainImage))
		return nil
	})
}

func newImagesDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <artwork-id> <image-id>",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImagesDelete(commandContext(cmd), app, args[0], args[1], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runImagesDelete(ctx context.Context, app *App, artworkID, imageID string, yes bool) error {
	if !listing.IsUUID(artworkID) {
		return fmt.Errorf("invalid artwork ID %q", artworkID)
	}
	if !listing.IsUUID(imageID) {
		return fmt.Errorf("invalid image ID %q", imageID)
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		if !yes {
			ok, err := app.confirm(fmt.Sprintf("Delete image %s", imageID))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(app.Out, "Cancelled.")
				return nil
			}
		}

		if err := c.Images(artworkID).Delete(ctx, imageID); err != nil {
			notify.Error(app.notifier(), "Failed to delete image")
			return fmt.Errorf("failed to delete image: %w", err)
		}

		notify.Success(app.notifier(), "Image deleted")
		return nil
	})
}
