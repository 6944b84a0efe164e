// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// serveCommand runs the OAuth gateway and API proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the OAuth gateway and Clover API proxy",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides PORT)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind",
			},
		},
		Action: r.Serve,
	}
}

// healthCommand checks a running gateway
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check gateway health and credential configuration (calls /health)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Health,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: r.ConfigShow,
			},
		},
	}
}

// authCommand handles the client session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Clover session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Clover in the browser and save the session",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Local callback port (must match the app's registered redirect URI)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "import",
				Usage: "Save a session from an access token obtained elsewhere (e.g. the gateway's success page)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "Access token",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "merchant",
						Usage: "Merchant ID",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "status",
				Usage:  "Show the saved session and gateway auth status (calls /api/auth/status)",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the saved session",
				Action: r.AuthLogout,
			},
		},
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls through the gateway",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a gateway path with the session token, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// merchantCommand handles merchant lookups
func merchantCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "merchant",
		Usage: "Merchant operations",
		Commands: []*cli.Command{
			{
				Name:  "current",
				Usage: "Show the merchant the session is scoped to",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.MerchantCurrent,
			},
			{
				Name:  "show",
				Usage: "Show a merchant by ID (defaults to the session's merchant)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.MerchantShow,
			},
		},
	}
}

func itemFlags(create bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "Item name",
			Required: create,
		},
		&cli.StringFlag{
			Name:  "price",
			Usage: "Price as a decimal amount, e.g. 12.99",
		},
		&cli.StringFlag{
			Name:  "sku",
			Usage: "Stock keeping unit",
		},
		&cli.BoolFlag{
			Name:  "hidden",
			Usage: "Hide the item from the register",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
}

// itemsCommand handles inventory items
func itemsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "items",
		Aliases: []string{"item", "inventory"},
		Usage:   "Inventory item operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List inventory items",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items to return",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of items to skip",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Vendor filter expression, e.g. price>=500 (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ItemsList,
			},
			{
				Name:   "create",
				Usage:  "Create an inventory item",
				Flags:  itemFlags(true),
				Action: r.ItemsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update the given fields of an item",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     itemFlags(false),
				Action:    r.ItemsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete an item",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ItemsDelete,
			},
		},
	}
}

// ordersCommand handles orders
func ordersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "orders",
		Aliases: []string{"order"},
		Usage:   "Order operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List orders, optionally within a creation time range",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Earliest creation time (YYYY-MM-DD or RFC 3339)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Latest creation time (YYYY-MM-DD or RFC 3339)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of orders to return",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.OrdersList,
			},
		},
	}
}

// exportCommand writes merchant data to files
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export items (and optionally orders) to JSON, CSV, Markdown or text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: clover_export_{epoch})",
			},
			&cli.BoolFlag{
				Name:  "orders",
				Usage: "Include orders",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Earliest order creation time (YYYY-MM-DD or RFC 3339)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Latest order creation time (YYYY-MM-DD or RFC 3339)",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Items requested per page",
				Value: 100,
			},
		},
		Action: r.Export,
	}
}

// monitorCommand returns the live inventory dashboard command.
func monitorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Aliases: []string{"watch", "ui"},
		Usage:   "Live inventory dashboard polling through the gateway",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Time between polls (overrides monitor.interval)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Items requested per poll (overrides monitor.limit)",
			},
		},
		Action: r.Monitor,
	}
}
