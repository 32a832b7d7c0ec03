// Package export renders tabular reports such as event rosters.
package export

import "fmt"

// Table is the content of an exported report.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table requires at least one header")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Headers))
		}
	}
	return nil
}

// Renderer encodes a table into a downloadable file.
type Renderer interface {
	Render(t Table) ([]byte, error)
	ContentType() string
	Extension() string
}
