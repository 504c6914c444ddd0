package results

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Reporter prints the end-of-run summary.
type Reporter struct {
	out io.Writer

	header *color.Color
	bad    *color.Color
	good   *color.Color
}

func NewReporter() *Reporter {
	return NewReporterTo(os.Stdout)
}

func NewReporterTo(out io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		header: color.New(color.Bold),
		bad:    color.New(color.FgRed),
		good:   color.New(color.FgGreen),
	}
}

func (r *Reporter) Print(s Summary) {
	r.header.Fprintln(r.out, "\nUnique Error Messages Found:")
	for _, sig := range s.UniqueErrors {
		r.bad.Fprintf(r.out, "- %s\n", sig)
	}

	r.header.Fprintln(r.out, "\nFinal Results:")
	fmt.Fprintf(r.out, "Total tests run: %d\n", s.TotalTestsRun)
	status := r.good
	if s.FailedTests > 0 {
		status = r.bad
	}
	status.Fprintf(r.out, "Failed tests: %d\n", s.FailedTests)
	fmt.Fprintf(r.out, "Unique errors found: %d\n", len(s.UniqueErrors))
}
