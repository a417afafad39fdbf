package refdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Source fetches the raw text of one reference table
type Source interface {
	Fetch(ctx context.Context) (string, error)
	String() string
}

// TableFetcher reads a named table body from a database
type TableFetcher interface {
	FetchTable(ctx context.Context, name string) (string, error)
}

// DataSourceError reports a reference table that could not be obtained or
// parsed. Dependent computation must not proceed when it is returned.
type DataSourceError struct {
	Table  string
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("reference table %s unavailable from %s: %v", e.Table, e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// IsDataSourceError reports whether err carries a DataSourceError
func IsDataSourceError(err error) bool {
	var dse *DataSourceError
	return errors.As(err, &dse)
}

// Load fetches a table from src and parses it with shape
func Load(ctx context.Context, src Source, shape TableShape) ([]Row, error) {
	text, err := src.Fetch(ctx)
	if err != nil {
		return nil, &DataSourceError{Table: shape.Name, Source: src.String(), Err: err}
	}

	rows, err := ParseTable(text, shape)
	if err != nil {
		return nil, &DataSourceError{Table: shape.Name, Source: src.String(), Err: err}
	}

	return rows, nil
}

// FileSource reads a table from the local filesystem
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s FileSource) String() string {
	return s.Path
}

// HTTPSource downloads a table over HTTP
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates an HTTP source with a traced client
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL: url,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(b), nil
}

func (s *HTTPSource) String() string {
	return s.URL
}

// DBSource reads a table body stored in the database
type DBSource struct {
	Fetcher TableFetcher
	Table   string
}

func (s DBSource) Fetch(ctx context.Context) (string, error) {
	if s.Fetcher == nil {
		return "", errors.New("no database configured")
	}
	return s.Fetcher.FetchTable(ctx, s.Table)
}

func (s DBSource) String() string {
	return "pg:" + s.Table
}

// IsDBSource reports whether a source string refers to a database table
func IsDBSource(raw string) bool {
	return strings.HasPrefix(raw, "pg:")
}

// ParseSource turns a configured source string into a Source. Strings with
// an http(s) scheme are downloaded, "pg:<name>" is read through db, anything
// else is a file path.
func ParseSource(raw string, db TableFetcher, timeout time.Duration) (Source, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, errors.New("empty source")
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return NewHTTPSource(raw, timeout), nil
	case IsDBSource(raw):
		name := strings.TrimPrefix(raw, "pg:")
		if name == "" {
			return nil, fmt.Errorf("missing table name in %q", raw)
		}
		return DBSource{Fetcher: db, Table: name}, nil
	default:
		return FileSource{Path: raw}, nil
	}
}
