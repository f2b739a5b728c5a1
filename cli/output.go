package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gear6io/metastore/pkg/sdk"
	"github.com/go-faster/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func asServerError(err error, target **sdk.ServerError) bool {
	return errors.As(err, target)
}

// printer renders command results as a pterm table on a terminal, as plain
// rows when piped, or as JSON.
type printer struct {
	w    io.Writer
	json bool
	tty  bool
}

func newPrinter(cmd *cobra.Command) *printer {
	format, _ := cmd.Flags().GetString("output")
	p := &printer{w: cmd.OutOrStdout(), json: format == "json"}
	if f, ok := p.w.(*os.File); ok {
		p.tty = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table prints rows under header, or v when JSON output is selected.
func (p *printer) table(v interface{}, header []string, rows [][]string) error {
	if p.json {
		return p.printJSON(v)
	}
	if !p.tty {
		pterm.DisableStyling()
		defer pterm.EnableStyling()
	}
	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(p.w).WithData(data).Render()
}

// list prints one name per line.
func (p *printer) list(names []string) error {
	if p.json {
		return p.printJSON(names)
	}
	for _, n := range names {
		fmt.Fprintln(p.w, n)
	}
	return nil
}

// done reports a successful mutation.
func (p *printer) done(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if p.json {
		return p.printJSON(map[string]string{"result": msg})
	}
	if p.tty {
		pterm.Success.WithWriter(p.w).Println(msg)
		return nil
	}
	fmt.Fprintln(p.w, msg)
	return nil
}
