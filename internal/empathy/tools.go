package empathy

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// TicketSource provides the tickets for one pipeline run.
type TicketSource interface {
	FetchTickets(ctx context.Context) ([]Ticket, error)
}

// ConsentRegistry resolves the consent record for a customer. A nil record
// with a nil error means no consent is on file.
type ConsentRegistry interface {
	Lookup(ctx context.Context, customerID string) (*ConsentRecord, error)
}

// DocumentSink publishes a finished empathy map to an external system.
type DocumentSink interface {
	Publish(ctx context.Context, m *Map, summary string) (*PublishReceipt, error)
}

// PublishReceipt identifies a published empathy-map document.
type PublishReceipt struct {
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

// batchFile is the YAML schema consumed by FileTicketSource: a ticket list
// plus optional inline consent records keyed by customer.
type batchFile struct {
	Tickets  []Ticket        `yaml:"tickets"`
	Consents []ConsentRecord `yaml:"consents"`
}

// FileTicketSource reads a ticket batch from a YAML file.
type FileTicketSource struct {
	path string

	once  sync.Once
	batch batchFile
	err   error
}

// NewFileTicketSource creates a source backed by a YAML batch file.
func NewFileTicketSource(path string) *FileTicketSource {
	return &FileTicketSource{path: path}
}

func (f *FileTicketSource) load() {
	// Batch file path comes from the CLI flag.
	// #nosec G304
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.err = fmt.Errorf("failed to read ticket batch %s: %w", f.path, err)
		return
	}
	if err := yaml.Unmarshal(data, &f.batch); err != nil {
		f.err = fmt.Errorf("failed to parse ticket batch %s: %w", f.path, err)
	}
}

// FetchTickets implements TicketSource.
func (f *FileTicketSource) FetchTickets(ctx context.Context) ([]Ticket, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return nil, f.err
	}
	return f.batch.Tickets, nil
}

// ConsentRegistry returns a registry backed by the batch file's inline
// consent records.
func (f *FileTicketSource) ConsentRegistry() (ConsentRegistry, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return nil, f.err
	}
	return NewStaticConsentRegistry(f.batch.Consents), nil
}

// StaticConsentRegistry serves consent records from an in-memory index.
type StaticConsentRegistry struct {
	byUser map[string]*ConsentRecord
}

// NewStaticConsentRegistry indexes the given records by user ID. The last
// record for a user wins.
func NewStaticConsentRegistry(records []ConsentRecord) *StaticConsentRegistry {
	byUser := make(map[string]*ConsentRecord, len(records))
	for i := range records {
		byUser[records[i].UserID] = &records[i]
	}
	return &StaticConsentRegistry{byUser: byUser}
}

// Lookup implements ConsentRegistry.
func (s *StaticConsentRegistry) Lookup(ctx context.Context, customerID string) (*ConsentRecord, error) {
	return s.byUser[customerID], nil
}

// MockDocumentSink records published maps in memory and hands back
// synthetic receipts. Stands in for a Google Drive or Notion integration.
type MockDocumentSink struct {
	mu        sync.Mutex
	Published []*Map
}

// Publish implements DocumentSink.
func (m *MockDocumentSink) Publish(ctx context.Context, em *Map, summary string) (*PublishReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, em)

	id := uuid.NewString()
	return &PublishReceipt{
		DocumentID: id,
		URL:        fmt.Sprintf("https://docs.invalid/empathy-maps/%s", id),
	}, nil
}

var (
	_ TicketSource    = (*FileTicketSource)(nil)
	_ ConsentRegistry = (*StaticConsentRegistry)(nil)
	_ DocumentSink    = (*MockDocumentSink)(nil)
)

// now is overridable in tests for consent expiry checks.
var now = time.Now
