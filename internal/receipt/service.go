package receipt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/soliq-checkmate/internal/export"
	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// lookupRetention is how long an unexported lookup is kept
const lookupRetention = time.Hour

// IDGenerator generates unique IDs for lookups
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the fetch, parse and export cycle for receipt links
type Service struct {
	db          DB
	fetcher     ofd.Fetcher
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, fetcher ofd.Fetcher, storage Storage) *Service {
	return &Service{
		db:          db,
		fetcher:     fetcher,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, fetcher ofd.Fetcher, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		fetcher:     fetcher,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Lookup fetches and parses the receipt at url and keeps the result until it is exported
func (s *Service) Lookup(ctx context.Context, url string) (*Lookup, error) {
	if err := ofd.ValidateURL(url); err != nil {
		return nil, err
	}

	markup, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		slog.Error("Failed to fetch receipt", "url", url, "error", err)
		return nil, fmt.Errorf("fetching receipt: %w", err)
	}

	table, err := ofd.Parse(markup)
	if err != nil {
		slog.Error("Failed to parse receipt",
			"url", url,
			"markup_size", len(markup),
			"error", err,
		)
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	if table.Empty() {
		return nil, ofd.ErrEmptyResult
	}

	now := s.timeSource.Now()
	lookup := &Lookup{
		ID:         s.idGenerator.Generate(),
		URL:        url,
		Identifier: ofd.Identifier(url),
		Items:      table.Items,
		CreatedAt:  now,
	}

	if n, err := s.db.DeleteLookupsBefore(now.Add(-lookupRetention)); err != nil {
		slog.Warn("Failed to purge stale lookups", "error", err)
	} else if n > 0 {
		slog.Info("Purged stale lookups", "count", n)
	}

	if err := s.db.SaveLookup(lookup); err != nil {
		return nil, fmt.Errorf("saving lookup: %w", err)
	}

	slog.Info("Receipt parsed", "id", lookup.ID, "identifier", lookup.Identifier, "items", len(lookup.Items))
	return lookup, nil
}

// GetLookup retrieves a pending lookup by ID
func (s *Service) GetLookup(id string) (*Lookup, error) {
	lookup, err := s.db.GetLookup(id)
	if err != nil {
		return nil, fmt.Errorf("getting lookup: %w", err)
	}
	return lookup, nil
}

// Export renders a lookup in the given format and discards the lookup
func (s *Service) Export(id string, format export.Format) (*Download, error) {
	lookup, err := s.db.GetLookup(id)
	if err != nil {
		return nil, fmt.Errorf("getting lookup: %w", err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, lookup.Table(), format); err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", format, err)
	}

	if err := s.db.DeleteLookup(id); err != nil {
		// The export itself succeeded, the lookup expires later
		slog.Warn("Failed to delete exported lookup", "id", id, "error", err)
	}

	return &Download{
		Filename:    export.Filename(lookup.Identifier, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ExportURL runs the whole cycle for url and saves the export to storage, returning where it was saved
func (s *Service) ExportURL(ctx context.Context, url string, format export.Format) (string, error) {
	lookup, err := s.Lookup(ctx, url)
	if err != nil {
		return "", err
	}

	download, err := s.Export(lookup.ID, format)
	if err != nil {
		return "", err
	}

	path, err := s.storage.Save(download.Filename, download.Data)
	if err != nil {
		return "", fmt.Errorf("saving export: %w", err)
	}
	return path, nil
}
