// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/olegiv/trapo-admin/internal/model"
	"github.com/olegiv/trapo-admin/internal/scheduler"
)

type command struct {
	usage string
	help  string
	// admin commands pass through the route guard first.
	admin bool
	run   func(c *Console, ctx context.Context, args []string) error
}

var commands map[string]command

// commandOrder is the order of the help listing.
var commandOrder = []string{
	"login", "register", "logout", "whoami",
	"dashboard", "orders", "products", "users",
	"list", "refresh", "next", "prev", "page", "limit", "search", "filter", "reset",
	"show", "status", "create", "edit", "delete",
	"jobs", "help", "quit",
}

func init() {
	commands = map[string]command{
		"help":      {usage: "help", help: "Show this help", run: (*Console).cmdHelp},
		"login":     {usage: "login [email]", help: "Sign in as an admin", run: (*Console).cmdLogin},
		"register":  {usage: "register", help: "Create an admin account", run: (*Console).cmdRegister},
		"logout":    {usage: "logout", help: "Sign out and forget the stored session", run: (*Console).cmdLogout},
		"whoami":    {usage: "whoami", help: "Show the signed-in user", run: (*Console).cmdWhoami},
		"dashboard": {usage: "dashboard [refresh]", help: "Show dashboard metrics", admin: true, run: (*Console).cmdDashboard},
		"orders":    {usage: "orders", help: "Open the orders list", admin: true, run: openCmd(ViewOrders)},
		"products":  {usage: "products", help: "Open the products list", admin: true, run: openCmd(ViewProducts)},
		"users":     {usage: "users", help: "Open the users list", admin: true, run: openCmd(ViewUsers)},
		"list":      {usage: "list", help: "Show the current page again", admin: true, run: (*Console).cmdList},
		"refresh":   {usage: "refresh", help: "Reload the current page", admin: true, run: (*Console).cmdRefresh},
		"next":      {usage: "next", help: "Next page", admin: true, run: (*Console).cmdNext},
		"prev":      {usage: "prev", help: "Previous page", admin: true, run: (*Console).cmdPrev},
		"page":      {usage: "page N", help: "Go to page N", admin: true, run: (*Console).cmdPage},
		"limit":     {usage: "limit N", help: "Set the page size", admin: true, run: (*Console).cmdLimit},
		"search":    {usage: "search [text]", help: "Search the list; no text clears it", admin: true, run: (*Console).cmdSearch},
		"filter":    {usage: "filter [value]", help: "Filter by order status, product category or user role", admin: true, run: (*Console).cmdFilter},
		"reset":     {usage: "reset", help: "Clear search and filter", admin: true, run: (*Console).cmdReset},
		"show":      {usage: "show ID", help: "Show an order or product", admin: true, run: (*Console).cmdShow},
		"status":    {usage: "status ID STATUS [note]", help: "Change an order's status", admin: true, run: (*Console).cmdStatus},
		"create":    {usage: "create", help: "Create a product", admin: true, run: (*Console).cmdCreate},
		"edit":      {usage: "edit ID", help: "Edit a product", admin: true, run: (*Console).cmdEdit},
		"delete":    {usage: "delete ID", help: "Delete a product", admin: true, run: (*Console).cmdDelete},
		"jobs":      {usage: "jobs", help: "List auto-refresh jobs", run: (*Console).cmdJobs},
		"quit":      {usage: "quit", help: "Leave the console", run: (*Console).cmdQuit},
		"exit":      {usage: "exit", run: (*Console).cmdQuit},
	}
}

func (c *Console) cmdHelp(context.Context, []string) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, name := range commandOrder {
		cmd := commands[name]
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, cmd.help)
	}
	return tw.Flush()
}

func (c *Console) cmdLogin(ctx context.Context, args []string) error {
	email := ""
	if len(args) > 0 {
		email = args[0]
	}
	var err error
	if email == "" {
		if email, err = c.ask("Email", ""); err != nil {
			return err
		}
	}
	password, err := c.askPassword("Password")
	if err != nil {
		return err
	}

	c.closeLists()
	if _, err := c.store.Login(ctx, email, password); err != nil {
		return err
	}
	c.expired.Store(false)
	c.whoami()
	return nil
}

func (c *Console) cmdRegister(ctx context.Context, _ []string) error {
	var form model.RegisterForm
	var err error
	if form.Name, err = c.ask("Name", ""); err != nil {
		return err
	}
	if form.Email, err = c.ask("Email", ""); err != nil {
		return err
	}
	if form.Password, err = c.askPassword("Password"); err != nil {
		return err
	}
	if form.ConfirmPassword, err = c.askPassword("Confirm password"); err != nil {
		return err
	}

	c.closeLists()
	if _, err := c.store.Register(ctx, form); err != nil {
		return err
	}
	c.expired.Store(false)
	c.whoami()
	return nil
}

func (c *Console) cmdLogout(ctx context.Context, _ []string) error {
	c.closeLists()
	if err := c.store.Logout(ctx); err != nil {
		return err
	}
	c.printf("Signed out.\n")
	return nil
}

func (c *Console) cmdWhoami(context.Context, []string) error {
	c.whoami()
	return nil
}

func (c *Console) cmdDashboard(ctx context.Context, args []string) error {
	if c.cfg.Dashboard == nil {
		return userError("Dashboard is not available.")
	}
	if len(args) > 0 && args[0] == "refresh" {
		c.cfg.Dashboard.Invalidate(ctx)
	}
	stats, err := c.cfg.Dashboard.Stats(ctx, c.api, c.store.Token())
	if err != nil {
		return err
	}
	writeDashboard(c.out, stats)
	return nil
}

func openCmd(name string) func(c *Console, ctx context.Context, args []string) error {
	return func(c *Console, _ context.Context, _ []string) error {
		l := c.open(name)
		l.Wait()
		l.show(c.out)
		return nil
	}
}

// current returns the active list.
func (c *Console) current() (*list, error) {
	if c.active == "" || c.lists == nil {
		return nil, userError("Open a list first: orders, products or users.")
	}
	return c.lists.byName[c.active], nil
}

// apply runs fn on the active list, waits for the fetch and shows it.
func (c *Console) apply(fn func(l *list) error) error {
	l, err := c.current()
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}
	l.Wait()
	l.show(c.out)
	return nil
}

func (c *Console) cmdList(context.Context, []string) error {
	return c.apply(func(*list) error { return nil })
}

func (c *Console) cmdRefresh(context.Context, []string) error {
	return c.apply(func(l *list) error {
		l.Refresh()
		return nil
	})
}

func (c *Console) cmdNext(context.Context, []string) error {
	return c.apply(func(l *list) error {
		p := l.pagination()
		if p.Page >= p.TotalPages {
			return userError("Already on the last page.")
		}
		l.SetPage(p.Page + 1)
		return nil
	})
}

func (c *Console) cmdPrev(context.Context, []string) error {
	return c.apply(func(l *list) error {
		p := l.pagination()
		if p.Page <= 1 {
			return userError("Already on the first page.")
		}
		l.SetPage(p.Page - 1)
		return nil
	})
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, userError("Usage: " + usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, userError("Usage: " + usage)
	}
	return n, nil
}

func (c *Console) cmdPage(_ context.Context, args []string) error {
	n, err := intArg(args, "page N")
	if err != nil {
		return err
	}
	return c.apply(func(l *list) error {
		l.SetPage(n)
		return nil
	})
}

func (c *Console) cmdLimit(_ context.Context, args []string) error {
	n, err := intArg(args, "limit N")
	if err != nil {
		return err
	}
	return c.apply(func(l *list) error {
		l.SetLimit(n)
		return nil
	})
}

// cmdSearch hands the term to the debounced search and commits it at once,
// like pressing enter in a search box.
func (c *Console) cmdSearch(_ context.Context, args []string) error {
	term := strings.Join(args, " ")
	return c.apply(func(l *list) error {
		l.SetSearch(term)
		l.FlushSearch()
		return nil
	})
}

func (c *Console) cmdFilter(_ context.Context, args []string) error {
	value := strings.Join(args, " ")
	if value != "" && c.active == ViewOrders {
		status, err := model.ParseOrderStatus(value)
		if err != nil {
			return err
		}
		value = string(status)
	}
	return c.apply(func(l *list) error {
		l.SetStatus(value)
		return nil
	})
}

func (c *Console) cmdReset(context.Context, []string) error {
	return c.apply(func(l *list) error {
		l.ResetFilters()
		return nil
	})
}

func idArg(args []string, usage string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", userError("Usage: " + usage)
	}
	return args[0], nil
}

func (c *Console) cmdShow(ctx context.Context, args []string) error {
	id, err := idArg(args, "show ID")
	if err != nil {
		return err
	}
	switch c.active {
	case ViewOrders:
		o, err := c.orders.Get(ctx, c.api, id)
		if err != nil {
			return err
		}
		writeOrder(c.out, *o)
	case ViewProducts:
		p, err := c.products.Get(ctx, c.api, id)
		if err != nil {
			return err
		}
		writeProduct(c.out, *p)
	default:
		return userError("Open the orders or products list first.")
	}
	return nil
}

func (c *Console) cmdStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return userError("Usage: status ID STATUS [note]")
	}
	status, err := model.ParseOrderStatus(args[1])
	if err != nil {
		return err
	}
	note := strings.Join(args[2:], " ")

	c.open(ViewOrders).Wait()
	order, err := c.lists.orders.UpdateStatus(ctx, args[0], status, note)
	if err != nil {
		return err
	}
	c.printf("Order %s status updated to %s.\n", order.OrderNumber, order.Status.Label())
	return nil
}

// askProduct prompts for every product field, offering the values of p.
func (c *Console) askProduct(p model.Product) (model.ProductInput, error) {
	var in model.ProductInput
	fields := []struct {
		label string
		def   string
		dst   *string
	}{
		{"Name", p.Name, &in.Name},
		{"Category", p.Category, &in.Category},
		{"Price", formatFloat(p.Price, p.ID != ""), &in.Price},
		{"Stock", formatInt(p.Stock, p.ID != ""), &in.Stock},
		{"Colors (comma separated)", strings.Join(p.Colors, ", "), &in.Colors},
		{"Sizes (comma separated)", strings.Join(p.Sizes, ", "), &in.Sizes},
		{"Image URL", p.Image, &in.Image},
		{"Description", p.Description, &in.Description},
	}
	for _, f := range fields {
		v, err := c.ask(f.label, f.def)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	return in, nil
}

func formatFloat(v float64, set bool) string {
	if !set {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatInt(v int, set bool) string {
	if !set {
		return ""
	}
	return strconv.Itoa(v)
}

func (c *Console) cmdCreate(ctx context.Context, _ []string) error {
	in, err := c.askProduct(model.Product{})
	if err != nil {
		return err
	}
	p, err := c.products.Create(ctx, c.api, in)
	if err != nil {
		return err
	}
	c.printf("Product %s created (%s).\n", p.Name, p.ID)
	if c.lists != nil {
		c.lists.byName[ViewProducts].Refresh()
	}
	return nil
}

func (c *Console) cmdEdit(ctx context.Context, args []string) error {
	id, err := idArg(args, "edit ID")
	if err != nil {
		return err
	}
	current, err := c.products.Get(ctx, c.api, id)
	if err != nil {
		return err
	}
	in, err := c.askProduct(*current)
	if err != nil {
		return err
	}

	c.open(ViewProducts).Wait()
	p, err := c.lists.products.Update(ctx, id, in)
	if err != nil {
		return err
	}
	c.printf("Product %s updated.\n", p.Name)
	return nil
}

func (c *Console) cmdDelete(ctx context.Context, args []string) error {
	id, err := idArg(args, "delete ID")
	if err != nil {
		return err
	}
	answer, err := c.ask("Delete product "+id+"? (y/N)", "")
	if err != nil {
		return err
	}
	if !slices.Contains([]string{"y", "yes"}, strings.ToLower(answer)) {
		c.printf("Cancelled.\n")
		return nil
	}

	l := c.open(ViewProducts)
	l.Wait()
	if err := c.lists.products.Delete(ctx, id); err != nil {
		return err
	}
	l.Wait()
	c.printf("Product deleted.\n")
	return nil
}

func (c *Console) cmdJobs(context.Context, []string) error {
	lister, ok := c.cfg.Scheduler.(interface{ List() []scheduler.JobInfo })
	if !ok {
		return userError("Auto-refresh is disabled.")
	}
	jobs := lister.List()
	if len(jobs) == 0 {
		c.printf("No jobs.\n")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "JOB\tSCHEDULE\tLAST RUN\tNEXT RUN")
	for _, j := range jobs {
		last := "-"
		if !j.LastRun.IsZero() {
			last = j.LastRun.Format("15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.Name, j.Schedule, last, j.NextRun.Format("15:04:05"))
	}
	return tw.Flush()
}

func (c *Console) cmdQuit(context.Context, []string) error {
	c.quit = true
	return nil
}
