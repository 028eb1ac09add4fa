package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// WriteCSV writes a header line followed by one line per item
func WriteCSV(w io.Writer, table ofd.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ofd.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, item := range table.Items {
		if err := cw.Write(textValues(item)); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
