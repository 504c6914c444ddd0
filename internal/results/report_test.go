package results

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestReporterFormat(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	NewReporterTo(&buf).Print(Summary{
		TotalTestsRun: 51,
		FailedTests:   2,
		UniqueErrors:  []string{"boom", "null pointer"},
	})

	want := "\nUnique Error Messages Found:\n" +
		"- boom\n" +
		"- null pointer\n" +
		"\nFinal Results:\n" +
		"Total tests run: 51\n" +
		"Failed tests: 2\n" +
		"Unique errors found: 2\n"
	assert.Equal(t, want, buf.String())
}
