package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/urfave/cli/v2"

	"frontdesk/internal/app"
	"frontdesk/internal/auth"
	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/infrastructure/clients"
	"frontdesk/internal/infrastructure/scanner"
	watermillMessage "frontdesk/internal/interfaces/message"
)

var lookupFlags = []cli.Flag{
	&cli.StringFlag{Name: "reference", Aliases: []string{"r"}, Usage: "transaction or booking reference"},
	&cli.StringFlag{Name: "code", Aliases: []string{"c"}, Usage: "decoded QR code text"},
	&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: string(checkin.KindPurchase), Usage: "purchase or booking"},
}

func validateFromFlags(c *cli.Context, rt *runtime) (checkin.Record, error) {
	kind, err := checkin.ParseKind(c.String("kind"))
	if err != nil {
		return nil, err
	}

	d := rt.app.Desk()
	if code := c.String("code"); code != "" {
		// QR codes only ever identify ticket purchases
		if kind != checkin.KindPurchase {
			return nil, fmt.Errorf("--code cannot be combined with --kind %s", kind)
		}
		return d.ValidateByCode(c.Context, code)
	}
	return d.ValidateByReference(c.Context, kind, c.String("reference"))
}

func printRecord(out io.Writer, r checkin.Record) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch v := r.(type) {
	case checkin.PurchaseRecord:
		fmt.Fprintf(w, "Purchase\t%s\n", v.ID)
		fmt.Fprintf(w, "Event\t%s\n", v.EventName)
		fmt.Fprintf(w, "Ticket\t%s x%d\n", v.TicketType, v.Quantity)
		fmt.Fprintf(w, "Email\t%s\n", v.Email)
		fmt.Fprintf(w, "Used\t%t\n", v.Used)
	case checkin.BookingRecord:
		fmt.Fprintf(w, "Booking\t%s (%s)\n", v.ID, v.Reference)
		fmt.Fprintf(w, "Guest\t%s\n", v.GuestName)
		fmt.Fprintf(w, "Room\t%s\n", strings.TrimSpace(v.Room+" "+v.Apartment))
		fmt.Fprintf(w, "Stay\t%s - %s\n", v.CheckInDate.Format(time.DateOnly), v.CheckOutDate.Format(time.DateOnly))
		fmt.Fprintf(w, "Status\t%s\n", v.Status)
	}
}

// userError replaces err with the operator message while keeping it matchable.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", checkin.UserMessage(err), err)
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "look up a ticket or booking",
		Flags: lookupFlags,
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := validateFromFlags(c, rt)
			if err != nil {
				return userError(err)
			}

			printRecord(c.App.Writer, record)
			return nil
		},
	}
}

func checkInCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-in",
		Usage: "validate a ticket or booking and check it in",
		Flags: append(lookupFlags, &cli.StringFlag{Name: "operator", Usage: "operator name recorded with the check-in"}),
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			if op := c.String("operator"); op != "" {
				rt.app.Desk().SetOperator(op)
			}

			record, err := validateFromFlags(c, rt)
			if err != nil {
				return userError(err)
			}
			printRecord(c.App.Writer, record)

			done, err := rt.app.Desk().CheckIn(c.Context)
			if err != nil {
				return userError(err)
			}

			fmt.Fprintln(c.App.Writer, done.Message)
			return nil
		},
	}
}

func checkOutCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-out",
		Usage: "check out a room booking",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reference", Aliases: []string{"r"}, Required: true, Usage: "booking reference"},
			&cli.StringFlag{Name: "operator", Usage: "operator name recorded with the check-out"},
		},
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			d := rt.app.Desk()
			if op := c.String("operator"); op != "" {
				d.SetOperator(op)
			}

			record, err := d.ValidateByReference(c.Context, checkin.KindBooking, c.String("reference"))
			if err != nil {
				return userError(err)
			}
			printRecord(c.App.Writer, record)

			done, err := d.CheckOut(c.Context)
			if err != nil {
				return userError(err)
			}

			fmt.Fprintln(c.App.Writer, done.Message)
			return nil
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "decode a QR code from a camera or an image and validate it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Usage: "decode this image file instead of a camera"},
			&cli.StringFlag{Name: "camera", Usage: "snapshot directory of the camera to use"},
			&cli.BoolFlag{Name: "no-validate", Usage: "only print the decoded text"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var enumerator scanner.Enumerator = scanner.NewDirEnumerator(cfg.CamerasDir, cfg.ScanPollInterval)
			switch {
			case c.String("image") != "":
				enumerator = scanner.StaticEnumerator{scanner.NewImageDevice(c.String("image"))}
			case c.String("camera") != "":
				enumerator = scanner.StaticEnumerator{scanner.NewSnapshotDevice(c.String("camera"), cfg.ScanPollInterval)}
			}

			s := scanner.NewScanner(enumerator, scanner.NewQRDecoder(), scanner.Config{Timeout: cfg.ScanTimeout})
			result, err := scanOnce(c.Context, s)
			if err != nil {
				return userError(err)
			}

			fmt.Fprintln(c.App.Writer, result.Text)
			if c.Bool("no-validate") {
				return nil
			}

			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			record, err := rt.app.Desk().ValidateByCode(c.Context, result.Text)
			if err != nil {
				return userError(err)
			}

			printRecord(c.App.Writer, record)
			return nil
		},
	}
}

func scanOnce(ctx context.Context, s *scanner.Scanner) (checkin.ScanResult, error) {
	results := make(chan checkin.ScanResult, 1)
	errs := make(chan error, 1)

	err := s.Start(ctx,
		func(r checkin.ScanResult) { results <- r },
		func(err error) { errs <- err },
	)
	if err != nil {
		return checkin.ScanResult{}, err
	}
	defer s.Stop()

	select {
	case r := <-results:
		return r, nil
	case err := <-errs:
		return checkin.ScanResult{}, err
	case <-ctx.Done():
		return checkin.ScanResult{}, ctx.Err()
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1},
		&cli.BoolFlag{Name: "all", Usage: "follow next page links until the last page"},
	}
}

func transactionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "transactions",
		Usage: "list transactions",
		Flags: pageFlags(),
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			backend := rt.app.Backend()
			page, err := backend.ListTransactions(c.Context, c.Int("page"))
			if err != nil {
				return userError(err)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "REFERENCE\tEMAIL\tAMOUNT\tSTATUS\tCREATED")

			return walkPages(c, backend.TransactionsPager(page), func(t checkin.Transaction) {
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
					t.Reference, t.Email, t.Amount, t.Currency, t.Status, t.CreatedAt.Format(time.DateTime))
			})
		},
	}
}

func bookingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bookings",
		Usage: "list room bookings",
		Flags: pageFlags(),
		Action: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			backend := rt.app.Backend()
			page, err := backend.ListBookings(c.Context, c.Int("page"))
			if err != nil {
				return userError(err)
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "REFERENCE\tGUEST\tROOM\tCHECK-IN\tSTATUS")

			return walkPages(c, backend.BookingsPager(page), func(b checkin.BookingRecord) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					b.Reference, b.GuestName, b.Room, b.CheckInDate.Format(time.DateOnly), b.Status)
			})
		},
	}
}

func walkPages[T any](c *cli.Context, pager *clients.Pager[T], print func(T)) error {
	for {
		page := pager.Current()
		for _, item := range page.Items {
			print(item)
		}

		if !c.Bool("all") || !page.HasNext() {
			fmt.Fprintf(c.App.ErrWriter, "page %d of %d (%d total)\n", page.CurrentPage, page.LastPage, page.Total)
			return nil
		}

		if _, err := pager.Next(c.Context); err != nil {
			return userError(err)
		}
	}
}

func openStore(c *cli.Context) (auth.Store, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	infra, err := app.Connect(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := app.NewAuthStore(cfg, infra.Redis)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return store, func() { _ = infra.Close() }, nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage the stored backend session",
		Subcommands: []*cli.Command{
			{
				Name:  "set-token",
				Usage: "store the bearer token used for backend calls",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Required: true, EnvVars: []string{"FRONTDESK_TOKEN"}},
					&cli.StringFlag{Name: "role"},
				},
				Action: func(c *cli.Context) error {
					store, closeStore, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeStore()

					session, err := app.LoadSession(c.Context, store)
					if err != nil {
						return err
					}
					session.Auth = auth.Context{Token: strings.TrimSpace(c.String("token")), Role: c.String("role")}
					if session.Auth.IsZero() {
						return errors.New("token must not be empty")
					}

					return store.Save(c.Context, session)
				},
			},
			{
				Name:  "clear",
				Usage: "forget the stored session",
				Action: func(c *cli.Context) error {
					store, closeStore, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeStore()

					return store.Clear(c.Context)
				},
			},
			{
				Name:  "show",
				Usage: "print the stored session with the token masked",
				Action: func(c *cli.Context) error {
					store, closeStore, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeStore()

					session, err := app.LoadSession(c.Context, store)
					if err != nil {
						return err
					}
					session.Auth.Token = maskToken(session.Auth.Token)

					enc := json.NewEncoder(c.App.Writer)
					enc.SetIndent("", "  ")
					return enc.Encode(session)
				},
			},
		},
	}
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func prefsCommand() *cli.Command {
	return &cli.Command{
		Name:  "prefs",
		Usage: "manage operator preferences",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "remember the operator and station names",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "operator"},
					&cli.StringFlag{Name: "desk", Usage: "station name shown in history"},
				},
				Action: func(c *cli.Context) error {
					store, closeStore, err := openStore(c)
					if err != nil {
						return err
					}
					defer closeStore()

					session, err := app.LoadSession(c.Context, store)
					if err != nil {
						return err
					}
					if c.IsSet("operator") {
						session.Preferences.Operator = strings.TrimSpace(c.String("operator"))
					}
					if c.IsSet("desk") {
						session.Preferences.Station = strings.TrimSpace(c.String("desk"))
					}

					return store.Save(c.Context, session)
				},
			},
		},
	}
}

func openPoisonQueue(c *cli.Context) (*watermillMessage.PoisonQueue, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	infra, err := app.Connect(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}

	q, err := app.NewPoisonQueue(watermill.NewStdLogger(false, false), infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return q, func() { _ = infra.Close() }, nil
}

func poisonCommand() *cli.Command {
	return &cli.Command{
		Name:  "poison",
		Usage: "manage events the processors gave up on",
		Subcommands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "list poisoned messages",
				Action: func(c *cli.Context) error {
					q, closeQueue, err := openPoisonQueue(c)
					if err != nil {
						return err
					}
					defer closeQueue()

					messages, err := q.Preview(c.Context)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					defer w.Flush()
					for _, m := range messages {
						fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Handler, m.Reason)
					}

					return nil
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<message_id>",
				Usage:     "drop a poisoned message",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("message id is required")
					}

					q, closeQueue, err := openPoisonQueue(c)
					if err != nil {
						return err
					}
					defer closeQueue()

					return q.Remove(c.Context, id)
				},
			},
		},
	}
}
