package pairs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/minipair/internal/model"
)

const (
	// IndexFile is the index document name at the source root.
	IndexFile = "index.json"
	// DataDir holds one JSON document per record id.
	DataDir = "data"
)

// Source loads the index and records.
type Source interface {
	Index(ctx context.Context) (*Index, error)
	Record(ctx context.Context, id string) (model.Record, error)
	// Location describes where data comes from (a directory or base URL).
	Location() string
}

// NewSource returns an HTTPSource for http(s) locations and a DirSource otherwise.
func NewSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("source must not be empty")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, nil)
	}
	return NewDirSource(location), nil
}

// ValidID reports whether id is safe to use as a file name.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// DecodeRecord parses a record document.
func DecodeRecord(id string, data []byte) (model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.Record{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	if len(rec.Pairs) == 0 {
		return model.Record{}, fmt.Errorf("record %s has no pairs", id)
	}
	rec.ID = id
	return rec, nil
}

// DirSource reads data from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Location implements Source.
func (s *DirSource) Location() string {
	return s.dir
}

// Index implements Source.
func (s *DirSource) Index(_ context.Context) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return ParseIndex(data)
}

// Record implements Source.
func (s *DirSource) Record(_ context.Context, id string) (model.Record, error) {
	if !ValidID(id) {
		return model.Record{}, fmt.Errorf("invalid record id %q: %w", id, ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, DataDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Record{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return model.Record{}, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return DecodeRecord(id, data)
}

// HTTPSource fetches data from the companion server or any static host.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource returns a source for baseURL. A nil client gets a 30s timeout client.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("source url %q has no host", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{base: base, client: client}, nil
}

// Location implements Source.
func (s *HTTPSource) Location() string {
	return s.base.String()
}

// BaseURL returns the parsed base URL.
func (s *HTTPSource) BaseURL() *url.URL {
	u := *s.base
	return &u
}

// Index implements Source.
func (s *HTTPSource) Index(ctx context.Context) (*Index, error) {
	data, err := s.get(ctx, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index: %w", err)
	}
	return ParseIndex(data)
}

// Record implements Source.
func (s *HTTPSource) Record(ctx context.Context, id string) (model.Record, error) {
	if !ValidID(id) {
		return model.Record{}, fmt.Errorf("invalid record id %q: %w", id, ErrNotFound)
	}
	data, err := s.get(ctx, DataDir+"/"+url.PathEscape(id))
	if err != nil {
		return model.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return DecodeRecord(id, data)
}

func (s *HTTPSource) get(ctx context.Context, ref string) ([]byte, error) {
	target, err := s.base.Parse(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
