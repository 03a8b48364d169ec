package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	core "github.com/coinbase-samples/core-go"
)

// printer writes results as indented JSON to stdout and status lines to stderr.
type printer struct {
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func newPrinter(env *Env) *printer {
	return &printer{stdout: env.Stdout, stderr: env.Stderr, color: env.Color}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		fmt.Fprintln(p.stderr, aurora.Green(msg))
		return
	}
	fmt.Fprintln(p.stderr, msg)
}

// failure prints err with its kind and, when present, the status code.
func (p *printer) failure(err error) {
	label := core.KindOf(err).String() + " error"
	if code, ok := core.StatusCode(err); ok {
		label = fmt.Sprintf("%s (%d)", label, code)
	}

	if p.color {
		fmt.Fprintf(p.stderr, "%s: %v\n", aurora.Bold(aurora.Red(label)), err)
		return
	}
	fmt.Fprintf(p.stderr, "%s: %v\n", label, err)
}
