// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console implements trapoctl, the interactive terminal admin
// console. It keeps a durable session on disk, gates every admin command
// through the route guard and drives the orders, products and users lists
// through listing controllers with debounced search and silent
// auto-refresh.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/guard"
	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/service"
	"github.com/olegiv/trapo-admin/internal/session"
)

// Prompt is printed before every command.
const Prompt = "trapo"

// Config wires a Console.
type Config struct {
	In  io.Reader
	Out io.Writer
	// ReadPassword reads a secret without echo. When nil the password is
	// read as a plain line from In.
	ReadPassword func() (string, error)

	Client      *apiclient.Client
	Persistence session.Persistence
	// Scheduler runs the auto-refresh jobs. Nil disables auto-refresh.
	Scheduler listing.Scheduler
	Dashboard *service.Dashboard

	PageSize        int
	SearchDelay     time.Duration
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// Console is one interactive session.
type Console struct {
	cfg    Config
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger

	store    *session.Store
	api      *apiclient.Client
	orders   *service.Orders
	products *service.Products

	expired atomic.Bool
	lists   *lists
	active  string
	quit    bool
}

// userError is shown to the user verbatim.
type userError string

func (e userError) Error() string { return string(e) }

const (
	errLoginRequired = userError("You are not signed in. Type 'login' to sign in.")
	errExpired       = userError("Your admin session has expired. Type 'login' to sign in again.")
	errDenied        = userError("Access denied. You don't have permission to access the admin panel.")
	errLoading       = userError("Session is still loading, try again.")
)

// New creates a Console. Run resolves the stored session.
func New(cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Console{
		cfg:    cfg,
		in:     bufio.NewScanner(cfg.In),
		out:    cfg.Out,
		logger: logger,
	}
	c.store = session.NewWithClient(cfg.Client, cfg.Persistence,
		session.WithLogger(logger),
		session.OnExpired(func(context.Context) { c.expired.Store(true) }),
	)
	c.api = cfg.Client.WithTokens(c.store)
	var inv service.Invalidator
	if cfg.Dashboard != nil {
		inv = cfg.Dashboard
	}
	c.orders = service.NewOrders(logger, inv)
	c.products = service.NewProducts(logger, inv)
	return c
}

// Store returns the console session.
func (c *Console) Store() *session.Store { return c.store }

// Run resolves the persisted session and reads commands until EOF, quit
// or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	defer c.closeLists()

	if err := c.store.Bootstrap(ctx); err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	c.printf("Trapo admin console. Type 'help' for commands.\n")
	c.whoami()

	for !c.quit {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.printf("%s> ", c.promptName())
		line, ok := c.readLine()
		if !ok {
			c.printf("\n")
			return c.in.Err()
		}
		if err := c.Exec(ctx, line); err != nil {
			c.printError(err)
		}
	}
	return nil
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	cmd, ok := commands[name]
	if !ok {
		return userError(fmt.Sprintf("Unknown command %q. Type 'help' for commands.", name))
	}
	if cmd.admin {
		if err := c.authorize(); err != nil {
			return err
		}
	}
	return cmd.run(c, ctx, args)
}

// authorize applies the route guard to an admin command.
func (c *Console) authorize() error {
	switch guard.Decide(c.store) {
	case guard.Allowed:
		return nil
	case guard.Denied:
		return errDenied
	case guard.RedirectLogin:
		c.closeLists()
		if c.expired.Swap(false) {
			return errExpired
		}
		return errLoginRequired
	default:
		return errLoading
	}
}

func (c *Console) promptName() string {
	if c.active == "" {
		return Prompt
	}
	return Prompt + ":" + c.active
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// ask prompts for a value; an empty answer keeps def.
func (c *Console) ask(label, def string) (string, error) {
	if def != "" {
		c.printf("%s [%s]: ", label, def)
	} else {
		c.printf("%s: ", label)
	}
	line, ok := c.readLine()
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (c *Console) askPassword(label string) (string, error) {
	if c.cfg.ReadPassword == nil {
		return c.ask(label, "")
	}
	c.printf("%s: ", label)
	return c.cfg.ReadPassword()
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printError(err error) {
	if errors.Is(err, apiclient.ErrAuthExpired) {
		c.closeLists()
		c.expired.Store(false)
		err = errExpired
	}
	var ue userError
	if errors.As(err, &ue) {
		c.printf("%s\n", ue)
		return
	}
	c.printf("Error: %s\n", errorMessage(err))
}

func errorMessage(err error) string {
	var ue userError
	if errors.As(err, &ue) {
		return string(ue)
	}
	return apiclient.Message(err)
}

func (c *Console) whoami() {
	info := c.store.Info()
	switch guard.DecideInfo(info.State, info.IsAdmin) {
	case guard.Allowed, guard.Denied:
		if u := info.User; u != nil {
			c.printf("Signed in as %s <%s> (%s).\n", u.Name, u.Email, u.Role)
		}
		if !info.IsAdmin {
			c.printf("%s\n", errDenied)
		}
	default:
		c.printf("%s\n", errLoginRequired)
	}
}

func (c *Console) closeLists() {
	if c.lists != nil {
		c.lists.close()
		c.lists = nil
	}
	c.active = ""
}
