// Package cli implements the admin command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"koerperwerte/internal/app"
	"koerperwerte/internal/domain"
)

// Context carries the services every command runs against.
type Context struct {
	Ctx      context.Context
	Ledger   *app.Ledger
	Calendar *app.CalendarService
	Driver   string
	Out      io.Writer
}

type RecordCmd struct {
	Group    string `help:"Group name." default:"${default_group}"`
	Identity string `help:"Identity of the person." required:""`
	Email    string `help:"Display email. Defaults to the identity."`
	Day      string `help:"Day of the measurement, e.g. 2024-01-31." default:"today"`
	Weight   string `arg:"" help:"Weight, e.g. 84,5."`
}

func (c *RecordCmd) Run(ctx *Context) error {
	email := c.Email
	if email == "" {
		email = c.Identity
	}
	day := c.Day
	if day == "" || strings.EqualFold(day, "today") {
		day = ctx.Ledger.Today().String()
	}

	rec, err := ctx.Ledger.Record(ctx.Ctx, c.Group, &domain.Person{Identity: c.Identity, Email: email}, day, c.Weight)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s  %s  %s  %s\n", rec.ID, rec.Day, rec.Person.Email, domain.FormatWeight(rec.Weight))
	return nil
}

type ListCmd struct {
	Group string `help:"Group name." default:"${default_group}"`
}

func (c *ListCmd) Run(ctx *Context) error {
	records, err := ctx.Ledger.ListAll(ctx.Ctx, c.Group, nil)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(ctx.Out, "No measurements found")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tPERSON\tWEIGHT\tID")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Day, r.Person.Email, domain.FormatWeight(r.Weight), r.ID)
	}
	return tw.Flush()
}

type CalendarCmd struct {
	Group string `help:"Group name." default:"${default_group}"`
}

func (c *CalendarCmd) Run(ctx *Context) error {
	cal, err := ctx.Calendar.View(ctx.Ctx, c.Group, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "DATUM\t")
	for _, p := range cal.Persons {
		fmt.Fprintf(tw, "%s\t", p.Email)
	}
	fmt.Fprintln(tw)
	for _, row := range cal.Days {
		fmt.Fprintf(tw, "%s\t", row.Day)
		for _, p := range cal.Persons {
			fmt.Fprintf(tw, "%s\t", domain.FormatWeight(row.WeightFor(p.Identity)))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// MigrateCmd relies on the store applying its schema when opened.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Out, "schema up to date (%s)\n", ctx.Driver)
	return nil
}
