package receipt

import (
	"time"

	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// Lookup is a parsed receipt waiting to be exported
type Lookup struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Identifier string     `json:"identifier"` // derived from the t, r, c query parameters
	Items      []ofd.Item `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Table returns the lookup items as a table
func (l *Lookup) Table() ofd.Table {
	return ofd.Table{Items: l.Items}
}

// Download is a rendered export ready to be written or served
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}
