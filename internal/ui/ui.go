// Package ui renders planner state for the command line: flattened tree
// rows, module listings, session status and diagnostics.
package ui

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/foundry/internal/ansi"
	"github.com/papapumpkin/foundry/internal/module"
	"github.com/papapumpkin/foundry/internal/node"
	"github.com/papapumpkin/foundry/internal/storage"
	"github.com/papapumpkin/foundry/internal/tree"
	"github.com/papapumpkin/foundry/internal/watch"
)

// Printer writes human-readable output to a writer.
type Printer struct {
	out   io.Writer
	color bool
}

// New returns a printer writing to out, with ANSI styling when color is set.
func New(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) style(s string, codes ...string) string {
	return ansi.Style(p.color, s, codes...)
}

// FormatNumber formats a computed value for display, using the node display
// rounding and thousands separators.
func FormatNumber(v float64) string {
	return humanize.CommafWithDigits(node.Round(v), 2)
}

// FormatPower formats a power figure in megawatts.
func FormatPower(mw float64) string {
	return FormatNumber(mw) + " MW"
}

// Flows returns the net flows of rates as "+20 Iron Plate, -30 Iron Ore",
// outputs first, each group ordered by name. Zero rates are omitted.
func (p *Printer) Flows(rates map[string]float64) string {
	names := make([]string, 0, len(rates))
	for name, v := range rates {
		if node.Round(v) != 0 {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		ap, bp := rates[a] > 0, rates[b] > 0
		if ap != bp {
			if ap {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})

	parts := make([]string, len(names))
	for i, name := range names {
		v := rates[name]
		if v > 0 {
			parts[i] = p.style("+"+FormatNumber(v)+" "+name, ansi.Green)
		} else {
			parts[i] = p.style(FormatNumber(v)+" "+name, ansi.Red)
		}
	}
	return strings.Join(parts, ", ")
}

// Rows prints flattened tree rows, one per line, indented by level.
func (p *Printer) Rows(rows []*tree.Instance) {
	for _, inst := range rows {
		fmt.Fprintln(p.out, p.row(inst))
	}
}

func (p *Printer) row(inst *tree.Instance) string {
	n := inst.Node
	indent := strings.Repeat("  ", inst.Level)

	marker := "·"
	switch {
	case len(inst.Children) > 0 && inst.Expanded:
		marker = "▾"
	case len(inst.Children) > 0:
		marker = "▸"
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(marker)
	b.WriteByte(' ')

	if n.IsSummary() {
		name := n.Recipe().Name
		if name == "" {
			name = "(group)"
		}
		b.WriteString(p.style(name, ansi.Bold))
	} else {
		b.WriteString(p.style(n.Producer().String(), ansi.Cyan))
		b.WriteString(" ")
		recipe := n.Recipe().Name
		if n.Recipe().IsPlaceholder() {
			recipe = p.style(recipe, ansi.Yellow)
		}
		b.WriteString(recipe)
		fmt.Fprintf(&b, " ×%d @%s%%", n.Count(), FormatNumber(n.Throughput()))
		if n.Producer().MaxTier > 1 {
			fmt.Fprintf(&b, " Mk%d", n.Tier())
		}
		if n.Purity() != node.PurityNA {
			fmt.Fprintf(&b, " %s", n.Purity())
		}
		if c, ok := n.Clamp(); ok {
			fmt.Fprintf(&b, " [%s=%s]", c.Ingredient, FormatNumber(c.Target))
		}
	}

	if flows := p.Flows(n.Ingredients()); flows != "" {
		b.WriteString("  ")
		b.WriteString(flows)
	}
	if n.PowerKnown() || n.IsSummary() {
		b.WriteString("  ")
		b.WriteString(p.style(FormatPower(n.Power()), ansi.Magenta))
	}

	line := b.String()
	if inst.FromModule {
		line = p.style(line, ansi.Dim)
	}
	return line
}

// Summary prints the net flows and power of a whole tree.
func (p *Printer) Summary(name string, t *tree.Tree) {
	fmt.Fprintf(p.out, "%s %s\n", p.style("net", ansi.Bold), name)
	flows := p.Flows(t.Root.Node.Ingredients())
	if flows == "" {
		flows = p.style("(no flows)", ansi.Dim)
	}
	fmt.Fprintf(p.out, "  flows: %s\n", flows)
	fmt.Fprintf(p.out, "  power: %s\n", p.style(FormatPower(t.Power()), ansi.Magenta))
}

// Modules lists module entries with their net recipes.
func (p *Printer) Modules(entries []*module.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, p.style("(no modules)", ansi.Dim))
		return
	}
	for _, e := range entries {
		status := p.style("✓", ansi.Green)
		if e.Err != nil {
			status = p.style("✗", ansi.Red)
		}
		fmt.Fprintf(p.out, "%s %s %s\n", status, p.style(e.ID, ansi.Bold), p.style(e.File.LinkPath(), ansi.Dim))
		if e.Recipe != nil {
			rates := make(map[string]float64)
			for _, in := range e.Recipe.Inputs {
				rates[in.Name] -= in.Count
			}
			for _, out := range e.Recipe.Outputs {
				rates[out.Name] += out.Count
			}
			if flows := p.Flows(rates); flows != "" {
				fmt.Fprintf(p.out, "    %s\n", flows)
			}
		}
		for _, problem := range Problems(e.Err) {
			fmt.Fprintf(p.out, "    %s %s\n", p.style("•", ansi.Red), problem)
		}
	}
}

// Problems flattens joined errors into their individual failures.
func Problems(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	return []error{err}
}

// Check prints the outcome of checking document name and returns the number
// of problems reported.
func (p *Printer) Check(name string, err error) int {
	problems := Problems(err)
	if len(problems) == 0 {
		fmt.Fprintf(p.out, "%s %s — no problems\n", p.style("✓", ansi.Green, ansi.Bold), name)
		return 0
	}
	fmt.Fprintf(p.out, "%s %s — %d problem(s):\n", p.style("✗", ansi.Red, ansi.Bold), name, len(problems))
	for _, e := range problems {
		kind := "error"
		var cycle *tree.CycleError
		switch {
		case errors.As(e, &cycle):
			kind = "cycle"
		case errors.Is(e, tree.ErrModuleMissing):
			kind = "missing"
		}
		fmt.Fprintf(p.out, "  %s %-7s %s\n", p.style("•", ansi.Red), kind, e)
	}
	return len(problems)
}

// Sessions lists staging sessions with their target and dirty state.
func (p *Printer) Sessions(sinks []*storage.Sink) {
	if len(sinks) == 0 {
		fmt.Fprintln(p.out, p.style("(no sessions)", ansi.Dim))
		return
	}
	for _, s := range sinks {
		target := p.style("(no target)", ansi.Dim)
		if df, ok := s.Target(); ok {
			target = df.FullPath()
		}
		state := p.style("clean", ansi.Green)
		if s.IsDirty() {
			state = p.style("modified", ansi.Yellow)
		}
		fmt.Fprintf(p.out, "%s  %s  %s  %s\n", p.style(s.Title(), ansi.Bold), state, target,
			p.style(s.StagingPath(), ansi.Dim))
	}
}

// Change reports a document change seen by the watcher and the outcome of
// reloading it.
func (p *Printer) Change(c watch.Change, err error) {
	symbol := p.style("↻", ansi.Blue)
	if err != nil {
		symbol = p.style("✗", ansi.Red)
	}
	fmt.Fprintf(p.out, "%s %s %s\n", symbol, c.ModuleID(), p.style(c.Kind.String(), ansi.Dim))
	for _, problem := range Problems(err) {
		fmt.Fprintf(p.out, "    %s %s\n", p.style("•", ansi.Red), problem)
	}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.out, "%s%s\n", p.style("error: ", ansi.Red, ansi.Bold), msg)
}

// Info prints a dimmed informational message.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.style(msg, ansi.Dim))
}
