// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/olegiv/trapo-admin/internal/listing"
	"github.com/olegiv/trapo-admin/internal/model"
)

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeView[T any](w io.Writer, v listing.View[T], table func(io.Writer, []T)) {
	if v.Query.Search != "" || v.Query.Status != "" {
		_, _ = fmt.Fprintf(w, "Filter: search=%q status=%q\n", v.Query.Search, v.Query.Status)
	}
	if v.ShowSpinner {
		_, _ = fmt.Fprintln(w, "Loading...")
		return
	}
	if v.Err != nil {
		_, _ = fmt.Fprintf(w, "Error: %s\n", errorMessage(v.Err))
	}
	if len(v.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No results.")
	} else {
		table(w, v.Items)
	}

	source := "server"
	if !v.Paginated {
		source = "local"
	}
	_, _ = fmt.Fprintf(w, "Page %d of %d (%d total, %s)", v.Pagination.Page, max(v.Pagination.TotalPages, 1),
		v.Pagination.Total, source)
	if !v.LoadedAt.IsZero() {
		_, _ = fmt.Fprintf(w, ", updated %s", v.LoadedAt.Format("15:04:05"))
	}
	_, _ = fmt.Fprintln(w)
}

func writeOrders(w io.Writer, orders []model.Order) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tORDER\tCUSTOMER\tITEMS\tTOTAL\tSTATUS\tDATE")
	for _, o := range orders {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			o.ID, o.OrderNumber, o.CustomerInfo.Name, o.ItemCount(), money(o.Total),
			o.Status.Label(), o.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func writeOrder(w io.Writer, o model.Order) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "Order\t%s (%s)\n", o.OrderNumber, o.ID)
	_, _ = fmt.Fprintf(tw, "Status\t%s\n", o.Status.Label())
	_, _ = fmt.Fprintf(tw, "Customer\t%s <%s>\n", o.CustomerInfo.Name, o.CustomerInfo.Email)
	if o.CustomerInfo.Address != "" {
		_, _ = fmt.Fprintf(tw, "Address\t%s\n", o.CustomerInfo.Address)
	}
	_, _ = fmt.Fprintf(tw, "Placed\t%s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	_, _ = fmt.Fprintf(tw, "Subtotal\t%s\n", money(o.Subtotal))
	_, _ = fmt.Fprintf(tw, "Shipping\t%s\n", money(o.Shipping))
	_, _ = fmt.Fprintf(tw, "Tax\t%s\n", money(o.Tax))
	_, _ = fmt.Fprintf(tw, "Total\t%s\n", money(o.Total))
	_ = tw.Flush()

	if len(o.Items) > 0 {
		_, _ = fmt.Fprintln(w, "\nItems:")
		tw = newTable(w)
		for _, it := range o.Items {
			name := it.Name
			if name == "" {
				name = it.Type
			}
			_, _ = fmt.Fprintf(tw, "  %s\tx%d\t%s\n", name, it.Quantity, money(it.Price))
		}
		_ = tw.Flush()
	}
	if len(o.StatusHistory) > 0 {
		_, _ = fmt.Fprintln(w, "\nHistory:")
		tw = newTable(w)
		for _, h := range o.StatusHistory {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", h.UpdatedAt.Format("2006-01-02 15:04"), h.Status.Label(), h.Note)
		}
		_ = tw.Flush()
	}
}

func writeProducts(w io.Writer, products []model.Product) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		stock := fmt.Sprint(p.Stock)
		if p.LowStock() {
			stock += " (low)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money(p.Price), stock)
	}
	_ = tw.Flush()
}

func writeProduct(w io.Writer, p model.Product) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "Product\t%s (%s)\n", p.Name, p.ID)
	_, _ = fmt.Fprintf(tw, "Category\t%s\n", p.Category)
	_, _ = fmt.Fprintf(tw, "Price\t%s\n", money(p.Price))
	_, _ = fmt.Fprintf(tw, "Stock\t%d\n", p.Stock)
	if len(p.Colors) > 0 {
		_, _ = fmt.Fprintf(tw, "Colors\t%s\n", strings.Join(p.Colors, ", "))
	}
	if len(p.Sizes) > 0 {
		_, _ = fmt.Fprintf(tw, "Sizes\t%s\n", strings.Join(p.Sizes, ", "))
	}
	if p.Description != "" {
		_, _ = fmt.Fprintf(tw, "Description\t%s\n", p.Description)
	}
	_ = tw.Flush()
}

func writeUsers(w io.Writer, users []model.AdminUser) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = tw.Flush()
}

func writeDashboard(w io.Writer, s *model.DashboardStats) {
	tw := newTable(w)
	_, _ = fmt.Fprintf(tw, "Total orders\t%d\n", s.TotalOrders)
	_, _ = fmt.Fprintf(tw, "Pending orders\t%d\n", s.PendingOrders)
	_, _ = fmt.Fprintf(tw, "Completed orders\t%d\n", s.CompletedOrders)
	_, _ = fmt.Fprintf(tw, "Total revenue\t%s\n", money(s.TotalRevenue))
	_, _ = fmt.Fprintf(tw, "Total users\t%d\n", s.TotalUsers)
	_ = tw.Flush()

	if len(s.SalesSeries) > 0 {
		_, _ = fmt.Fprintln(w, "\nLast 7 days:")
		tw = newTable(w)
		for _, d := range s.SalesSeries {
			_, _ = fmt.Fprintf(tw, "  %s\t%d orders\t%s\n", d.Date, d.Orders, money(d.Sales))
		}
		_ = tw.Flush()
	}
	if len(s.RecentOrders) > 0 {
		_, _ = fmt.Fprintln(w, "\nRecent orders:")
		writeOrders(w, s.RecentOrders)
	}
}
