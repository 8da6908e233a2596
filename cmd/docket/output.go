package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/docket/internal/core"
)

// printer renders command results as text or JSON.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) run(run *core.ImportRun) error {
	if p.json {
		return p.encode(run)
	}

	mode := ""
	if run.DryRun {
		mode = " (dry run, nothing saved)"
	}
	fmt.Fprintf(p.w, "%s: %s%s\n", run.FileName, run.Strategy.Label(), mode)
	fmt.Fprintf(p.w, "  import id:   %s\n", run.ID)
	fmt.Fprintf(p.w, "  import date: %s\n", run.ImportDate)

	r := run.Report
	if r == nil {
		return nil
	}
	for _, b := range []struct {
		name string
		refs []string
	}{
		{"imported", r.Imported},
		{"settled", r.Settled},
		{"updated", r.Updated},
		{"ignored", r.Ignored},
		{"unknown", r.Unknown},
		{"errors", r.Errors},
	} {
		if len(b.refs) == 0 {
			continue
		}
		fmt.Fprintf(p.w, "  %s (%d):\n", b.name, len(b.refs))
		for _, ref := range b.refs {
			fmt.Fprintf(p.w, "    %s\n", ref)
		}
	}
	c := run.Counts
	fmt.Fprintf(p.w, "  %d row(s), %d change(s)\n", c.Total(), c.Changed())
	return nil
}

func (p *printer) runs(runs []core.ImportRun) error {
	if p.json {
		if runs == nil {
			runs = []core.ImportRun{}
		}
		return p.encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(p.w, "no imports recorded")
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tFILE\tSTRATEGY\tIMPORTED\tSETTLED\tUPDATED\tERRORS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.FileName, r.Strategy,
			r.Counts.Imported, r.Counts.Settled, r.Counts.Updated, r.Counts.Errors)
	}
	return tw.Flush()
}

func (p *printer) strategies() error {
	infos := core.Strategies()
	if p.json {
		return p.encode(infos)
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tHEADER")
	for _, s := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Kind, s.Label, strings.Join(s.Signature, " | "))
	}
	return tw.Flush()
}
