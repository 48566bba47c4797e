// Package output renders status messages and article listings for the terminal
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// UseColors decides colored output from the --color flag value ("auto",
// "always" or "never") and the output.colors setting. In auto mode NO_COLOR
// and TERM=dumb switch colors off.
func UseColors(flag string, configColors bool) (bool, error) {
	switch flag {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		_, noColor := os.LookupEnv("NO_COLOR")
		return configColors && !noColor && os.Getenv("TERM") != "dumb", nil
	}
	return false, fmt.Errorf("invalid color mode %q: must be auto, always, or never", flag)
}

type level int

const (
	levelInfo level = iota
	levelSuccess
	levelWarning
	levelError
)

// style is how one level looks: a symbol and color on a terminal, a tag in
// plain output.
type style struct {
	attrs  []color.Attribute
	symbol string
	tag    string
	stderr bool
}

var styles = map[level]style{
	levelInfo:    {attrs: []color.Attribute{color.FgCyan}},
	levelSuccess: {attrs: []color.Attribute{color.FgGreen}, symbol: "✓ ", tag: "[OK] "},
	levelWarning: {attrs: []color.Attribute{color.FgYellow}, symbol: "⚠ ", tag: "[WARN] ", stderr: true},
	levelError:   {attrs: []color.Attribute{color.FgRed}, symbol: "✗ ", tag: "[ERROR] ", stderr: true},
}

// Printer writes user-facing lines. Status and data go to out, problems to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on the given writers
func NewPrinter(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Out returns the writer used for regular output
func (p *Printer) Out() io.Writer {
	return p.out
}

// Info, Success, Warning and Error print one status line; warnings and errors
// go to stderr.
func (p *Printer) Info(format string, args ...any)    { p.line(levelInfo, format, args) }
func (p *Printer) Success(format string, args ...any) { p.line(levelSuccess, format, args) }
func (p *Printer) Warning(format string, args ...any) { p.line(levelWarning, format, args) }
func (p *Printer) Error(format string, args ...any)   { p.line(levelError, format, args) }

// Print writes a line without decoration
func (p *Printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Busy shows the indicator for a request still in flight
func (p *Printer) Busy() {
	fmt.Fprintln(p.err, p.paint("Please wait...", color.Faint))
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	return p.paint(text, color.Bold)
}

func (p *Printer) line(l level, format string, args []any) {
	st := styles[l]
	w := p.out
	if st.stderr {
		w = p.err
	}
	msg := fmt.Sprintf(format, args...)
	if p.useColors {
		fmt.Fprintln(w, p.paint(st.symbol+msg, st.attrs...))
		return
	}
	fmt.Fprintln(w, st.tag+msg)
}

func (p *Printer) paint(text string, attrs ...color.Attribute) string {
	if !p.useColors {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}
