package commands

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/listing"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/output"
	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/models"
)

var orderStatuses = []models.OrderStatus{
	models.OrderPending, models.OrderProcessing, models.OrderShipped, models.OrderDelivered, models.OrderCanceled,
}

// NewOrdersCmd creates the orders command group
func NewOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "View and fulfil customer orders",
	}

	cmd.AddCommand(
		newOrdersListCmd(app),
		newOrdersActiveCmd(app),
		newOrdersGetCmd(app),
		newOrdersShipCmd(app),
		newOrdersDeliverCmd(app),
	)

	return cmd
}

func newOrdersListCmd(app *App) *cobra.Command {
	opts := &listOptions{}
	var status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List orders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersList(commandContext(cmd), app, opts, status)
		},
	}

	opts.bind(cmd.Flags(), "Only show orders whose customer email contains this text")
	cmd.Flags().StringVar(&status, "status", "", "Only show orders with this status: "+joinValues(orderStatuses))

	return cmd
}

func runOrdersList(ctx context.Context, app *App, opts *listOptions, status string) error {
	sort, err := listing.ParseSort(opts.sort, opts.direction, listing.OrderStatus, listing.OrderCreatedAt)
	if err != nil {
		return err
	}

	var params url.Values
	if status != "" {
		if err := oneOf("status", status, orderStatuses); err != nil {
			return err
		}
		params = url.Values{"status": {status}}
	}

	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		orders, err := c.Orders().List(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}

		return printOrders(app, printer, listing.Orders(orders, opts.search, sort))
	})
}

func newOrdersActiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List orders waiting to be shipped, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersActive(commandContext(cmd), app)
		},
	}
}

func runOrdersActive(ctx context.Context, app *App) error {
	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		orders, err := c.ActiveOrders(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active orders: %w", err)
		}

		if len(orders) == 0 && printer.Format == output.FormatTable {
			fmt.Fprintln(app.Out, "No active orders at the moment.")
			return nil
		}
		return printOrders(app, printer, orders)
	})
}

func printOrders(app *App, printer *output.Printer, orders []models.Order) error {
	if len(orders) == 0 && printer.Format == output.FormatTable {
		fmt.Fprintln(app.Out, "No orders found.")
		return nil
	}

	return printer.Print(orders, func() *output.Table {
		table := &output.Table{Headers: []string{"ID", "STATUS", "CUSTOMER", "EMAIL", "TOTAL", "CREATED"}}
		for _, o := range orders {
			table.AddRow(
				o.ID,
				string(o.Status),
				o.ShippingDetail.Name,
				o.ShippingDetail.Email,
				listing.FormatUSD(o.PaymentRequirement.TotalCents),
				o.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return table
	})
}

func newOrdersGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersGet(commandContext(cmd), app, args[0])
		},
	}
}

func runOrdersGet(ctx context.Context, app *App, id string) error {
	if !listing.IsUUID(id) {
		return fmt.Errorf("invalid order ID %q", id)
	}

	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		order, err := c.Orders().Get(ctx, id, nil)
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		if printer.Format != output.FormatTable {
			return printer.Print(order, nil)
		}
		return printOrder(app, order)
	})
}

func printOrder(app *App, o *models.Order) error {
	ship := o.ShippingDetail
	pay := o.PaymentRequirement

	pairs := [][2]string{
		{"Order ID", o.ID},
		{"Status", string(o.Status)},
		{"Created", o.CreatedAt.Format("2006-01-02 15:04")},
		{"Stripe session", output.OrDash(o.StripeSessionID)},
		{"Tracking", output.OrDash(o.TrackingLink)},
		{"Name", ship.Name},
		{"Email", ship.Email},
		{"Address", ship.Line1},
	}
	if ship.Line2 != "" {
		pairs = append(pairs, [2]string{"", ship.Line2})
	}
	pairs = append(pairs,
		[2]string{"", fmt.Sprintf("%s, %s %s %s", ship.City, ship.State, ship.Postal, ship.Country)},
		[2]string{"Subtotal", listing.FormatUSD(pay.SubtotalCents)},
		[2]string{"Shipping", listing.FormatUSD(pay.ShippingCents)},
		[2]string{"Total", listing.FormatUSD(pay.TotalCents)},
		[2]string{"Payments", strconv.Itoa(len(o.Payments))},
	)
	for _, p := range o.Payments {
		pairs = append(pairs, [2]string{"", fmt.Sprintf("%s %s %s", p.Status, listing.FormatUSD(p.TotalCents), p.StripePaymentIntentID)})
	}

	return output.Details(app.Out, pairs...)
}

func newOrdersShipCmd(app *App) *cobra.Command {
	var tracking string
	var yes bool

	cmd := &cobra.Command{
		Use:   "ship <order-id>",
		Short: "Mark an order shipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderTransition(commandContext(cmd), app, args[0], models.OrderShipped, tracking, yes)
		},
	}

	cmd.Flags().StringVar(&tracking, "tracking", "", "Tracking link for the shipment")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newOrdersDeliverCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "deliver <order-id>",
		Short: "Mark an order delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderTransition(commandContext(cmd), app, args[0], models.OrderDelivered, "", yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runOrderTransition(ctx context.Context, app *App, id string, status models.OrderStatus, tracking string, yes bool) error {
	if !listing.IsUUID(id) {
		return fmt.Errorf("invalid order ID %q", id)
	}

	return app.Authenticated(ctx, func(c *client.Client, _ session.Session) error {
		if !yes {
			ok, err := app.confirm(fmt.Sprintf("Mark order %s as %s", id, status))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(app.Out, "Cancelled.")
				return nil
			}
		}

		var err error
		if status == models.OrderShipped {
			_, err = c.ShipOrder(ctx, id, tracking)
		} else {
			_, err = c.DeliverOrder(ctx, id)
		}
		if err != nil {
			notify.Error(app.notifier(), fmt.Sprintf("Failed to mark order as %s", status))
			return fmt.Errorf("failed to update order: %w", err)
		}

		notify.SuccessWithLink(app.notifier(), fmt.Sprintf("Order marked as %s", status), "orders get "+id)
		return nil
	})
}
