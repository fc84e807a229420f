package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/listing"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/output"
	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/models"
)

// NewArtworksCmd creates the artworks command group
func NewArtworksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artworks",
		Aliases: []string{"artwork", "art"},
		Short:   "Manage the artwork catalogue",
	}

	cmd.AddCommand(
		newArtworksListCmd(app),
		newArtworksGetCmd(app),
		newArtworksCreateCmd(app),
		newArtworksUpdateCmd(app),
		newArtworksDeleteCmd(app),
	)

	return cmd
}

type listOptions struct {
	search    string
	sort      string
	direction string
}

func (o *listOptions) bind(flags *pflag.FlagSet, searchHelp string) {
	flags.StringVar(&o.search, "search", "", searchHelp)
	flags.StringVar(&o.sort, "sort", "", "Sort field")
	flags.StringVar(&o.direction, "order", "", "Sort direction: asc or desc (default depends on the field)")
}

func newArtworksListCmd(app *App) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List artworks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtworksList(commandContext(cmd), app, opts)
		},
	}

	opts.bind(cmd.Flags(), "Only show artworks whose title contains this text")

	return cmd
}

func runArtworksList(ctx context.Context, app *App, opts *listOptions) error {
	sort, err := listing.ParseSort(opts.sort, opts.direction,
		listing.ArtworkTitle, listing.ArtworkStatus, listing.ArtworkCreatedAt)
	if err != nil {
		return err
	}

	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		artworks, err := c.Artworks().List(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list artworks: %w", err)
		}

		artworks = listing.Artworks(artworks, opts.search, sort)

		if len(artworks) == 0 && printer.Format == output.FormatTable {
			fmt.Fprintln(app.Out, "No artworks found.")
			return nil
		}

		return printer.Print(artworks, func() *output.Table {
			table := &output.Table{Headers: []string{"ID", "TITLE", "YEAR", "SIZE", "PRICE", "STATUS", "CREATED"}}
			for _, a := range artworks {
				table.AddRow(
					a.ID,
					a.Title,
					optionalInt(a.PaintingYear),
					formatSize(a),
					listing.FormatUSD(a.PriceCents),
					string(a.Status),
					a.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			return table
		})
	})
}

func newArtworksGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <artwork-id>",
		Short: "Show one artwork",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtworksGet(commandContext(cmd), app, args[0])
		},
	}
}

func runArtworksGet(ctx context.Context, app *App, id string) error {
	if !listing.IsUUID(id) {
		return fmt.Errorf("invalid artwork ID %q", id)
	}

	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		artwork, err := c.Artworks().Get(ctx, id, nil)
		if err != nil {
			return fmt.Errorf("failed to get artwork: %w", err)
		}

		if printer.Format != output.FormatTable {
			return printer.Print(artwork, nil)
		}
		return printArtwork(app, artwork)
	})
}

func printArtwork(app *App, a *models.Artwork) error {
	soldAt := "-"
	if a.SoldAt != nil {
		soldAt = a.SoldAt.Format("2006-01-02 15:04")
	}

	return output.Details(app.Out,
		[2]string{"ID", a.ID},
		[2]string{"Title", a.Title},
		[2]string{"Number", optionalInt(a.PaintingNumber)},
		[2]string{"Year", optionalInt(a.PaintingYear)},
		[2]string{"Size", formatSize(*a)},
		[2]string{"Price", listing.FormatUSD(a.PriceCents)},
		[2]string{"Status", string(a.Status)},
		[2]string{"Medium", string(a.Medium)},
		[2]string{"Category", string(a.Category)},
		[2]string{"Paper", strconv.FormatBool(a.Paper != nil && *a.Paper)},
		[2]string{"Sold at", soldAt},
		[2]string{"Images", strconv.Itoa(len(a.Images))},
		[2]string{"Created", a.CreatedAt.Format("2006-01-02 15:04")},
	)
}

// artworkFlags are the editable artwork fields
type artworkFlags struct {
	title    string
	number   int
	year     int
	width    float64
	height   float64
	price    string
	status   string
	medium   string
	category string
	paper    bool
}

func (f *artworkFlags) bind(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "Title")
	flags.IntVar(&f.number, "number", 0, "Painting number")
	flags.IntVar(&f.year, "year", 0, "Year painted")
	flags.Float64Var(&f.width, "width", 0, "Width in inches")
	flags.Float64Var(&f.height, "height", 0, "Height in inches")
	flags.StringVar(&f.price, "price", "", "Price in USD, e.g. 1250.00")
	flags.StringVar(&f.status, "status", string(models.ArtworkAvailable), "Status: "+joinValues(models.ArtworkStatuses))
	flags.StringVar(&f.medium, "medium", string(models.MediumOilPanel), "Medium: "+joinValues(models.ArtworkMediums))
	flags.StringVar(&f.category, "category", string(models.CategoryFigure), "Category: "+joinValues(models.ArtworkCategories))
	flags.BoolVar(&f.paper, "paper", false, "Painted on paper")
}

// payload builds the request body. With onlyChanged only flags set on the
// command line are included.
func (f *artworkFlags) payload(flags *pflag.FlagSet, onlyChanged bool) (map[string]any, error) {
	include := func(name string) bool {
		return !onlyChanged || flags.Changed(name)
	}

	body := map[string]any{}

	if include("title") {
		title := strings.TrimSpace(f.title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		body["title"] = title
	}
	if include("number") {
		body["painting_number"] = nullableInt(flags.Changed("number"), f.number)
	}
	if include("year") {
		body["painting_year"] = nullableInt(flags.Changed("year"), f.year)
	}
	if include("width") {
		body["width_inches"] = f.width
	}
	if include("height") {
		body["height_inches"] = f.height
	}
	if include("price") {
		var cents int64
		if f.price != "" {
			parsed, err := listing.ParseUSD(f.price)
			if err != nil {
				return nil, err
			}
			cents = parsed
		}
		body["price_cents"] = cents
	}
	if include("status") {
		if err := oneOf("status", f.status, models.ArtworkStatuses); err != nil {
			return nil, err
		}
		body["status"] = f.status
	}
	if include("medium") {
		if err := oneOf("medium", f.medium, models.ArtworkMediums); err != nil {
			return nil, err
		}
		body["medium"] = f.medium
	}
	if include("category") {
		if err := oneOf("category", f.category, models.ArtworkCategories); err != nil {
			return nil, err
		}
		body["category"] = f.category
	}
	if include("paper") {
		if f.paper {
			body["paper"] = true
		} else {
			body["paper"] = nil
		}
	}

	return body, nil
}

func newArtworksCreateCmd(app *App) *cobra.Command {
	fields := &artworkFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an artwork",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := fields.payload(cmd.Flags(), false)
			if err != nil {
				return err
			}
			return runArtworksCreate(commandContext(cmd), app, body)
		},
	}

	fields.bind(cmd.Flags())
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runArtworksCreate(ctx context.Context, app *App, body map[string]any) error {
	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		artwork, err := c.Artworks().Create(ctx, body)
		if err != nil {
			notify.Error(app.notifier(), "Failed to create artwork")
			return fmt.Errorf("failed to create artwork: %w", err)
		}

		notify.SuccessWithLink(app.notifier(), fmt.Sprintf("Created artwork %q", artwork.Title), "artworks get "+artwork.ID)
		return nil
	})
}

func newArtworksUpdateCmd(app *App) *cobra.Command {
	fields := &artworkFlags{}

	cmd := &cobra.Command{
		Use:   "update <artwork-id>",
		Short: "Update an artwork; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !listing.IsUUID(args[0]) {
				return fmt.Errorf("invalid artwork ID %q", args[0])
			}
			body, err := fields.payload(cmd.Flags(), true)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}
			return runArtworksUpdate(commandContext(cmd), app, args[0], body)
		},
	}

	fields.bind(cmd.Flags())

	return cmd
}

func runArtworksUpdate(ctx context.Context, app *App, id string, body map[string]any) error {
	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		artwork, err := c.Artworks().Update(ctx, id, body, true)
		if err != nil {
			notify.Error(app.notifier(), "Failed to update artwork")
			return fmt.Errorf("failed to update artwork: %w", err)
		}

		notify.Success(app.notifier(), fmt.Sprintf("Updated artwork %q", artwork.Title))
		return nil
	})
}

func newArtworksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <artwork-id>",
		Short: "Delete an artwork and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtworksDelete(commandContext(cmd), app, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runArtworksDelete(ctx context.Context, app *App, id string, yes bool) error {
	if !listing.IsUUID(id) {
		return fmt.Errorf("invalid artwork ID %q", id)
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		if !yes {
			ok, err := app.confirm(fmt.Sprintf("Delete artwork %s", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(app.Out, "Cancelled.")
				return nil
			}
		}

		if err := c.Artworks().Delete(ctx, id); err != nil {
			notify.Error(app.notifier(), "Failed to delete artwork")
			return fmt.Errorf("failed to delete artwork: %w", err)
		}

		notify.Success(app.notifier(), "Artwork deleted")
		return nil
	})
}

func formatSize(a models.Artwork) string {
	return fmt.Sprintf("%s×%s\"", trimFloat(a.WidthInches), trimFloat(a.HeightInches))
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// nullableInt maps an unset or zero flag to JSON null
func nullableInt(set bool, v int) any {
	if !set || v == 0 {
		return nil
	}
	return v
}

func oneOf[T ~string](name, value string, allowed []T) error {
	for _, a := range allowed {
		if string(a) == value {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (expected one of: %s)", name, value, joinValues(allowed))
}

func joinValues[T ~string](values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
