package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hearthly/hearth/pkg/resourcepath"
	"github.com/hearthly/hearth/pkg/wirevalue"
)

var (
	// ErrNotFound reports an operation targeting a document that does
	// not exist. An empty listing is not an error.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists reports an explicit-id create at an occupied name.
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is one stored record. Fields hold wire values; CreateTime is
// set once at creation and UpdateTime is monotonically non-decreasing.
type Document struct {
	Name       string
	Fields     map[string]wirevalue.Value
	CreateTime time.Time
	UpdateTime time.Time
}

func (d *Document) clone() Document {
	return Document{
		Name:       d.Name,
		Fields:     wirevalue.CloneFields(d.Fields),
		CreateTime: d.CreateTime,
		UpdateTime: d.UpdateTime,
	}
}

// Store is the document table.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document

	now func() time.Time
	ids IDGenerator
	log hclog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the timestamp source, typically for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the auto-id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.ids = gen }
}

// New returns an empty store.
func New(log hclog.Logger, opts ...Option) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s := &Store{
		docs: make(map[string]*Document),
		now:  time.Now,
		ids:  NewRandomIDGenerator(),
		log:  log.Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create encodes fields and stores a new document in the collection.
// With an explicit id it fails with ErrAlreadyExists if the name is
// occupied; otherwise it generates ids until an unused name is found.
func (s *Store) Create(parent resourcepath.CollectionName, explicitID string, fields map[string]any) (Document, error) {
	encoded, err := wirevalue.EncodeFields(fields)
	if err != nil {
		return Document{}, err
	}
	if explicitID != "" {
		if err := resourcepath.ValidateSegment(explicitID); err != nil {
			return Document{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	if explicitID != "" {
		name = parent.Doc(explicitID).String()
		if _, ok := s.docs[name]; ok {
			return Document{}, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
	} else {
		// The id space is wide enough that this loop terminates on the
		// first try in practice; the existence check is the uniqueness
		// guarantee, not the generator.
		for {
			name = parent.Doc(s.ids.NewID()).String()
			if _, ok := s.docs[name]; !ok {
				break
			}
		}
	}

	now := s.now().UTC()
	doc := &Document{
		Name:       name,
		Fields:     encoded,
		CreateTime: now,
		UpdateTime: now,
	}
	s.docs[name] = doc
	s.log.Debug("created document", "name", name, "fields", len(encoded))
	return doc.clone(), nil
}

// Get returns a snapshot of the document. A syntactically valid but
// never-written name reports ok=false, not an error.
func (s *Store) Get(name string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return Document{}, false
	}
	return doc.clone(), true
}

// List returns snapshots of every document directly inside the
// collection, ordered by name. Callers must not rely on the order.
func (s *Store) List(parent resourcepath.CollectionName) []Document {
	prefix := parent.String() + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for name, doc := range s.docs {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, doc.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge overwrites or adds exactly the fields present in partial,
// leaving every other stored field untouched, and bumps UpdateTime.
// An explicit null in partial is stored as null, not a deletion.
func (s *Store) Merge(name string, partial map[string]any) (Document, error) {
	encoded, err := wirevalue.EncodeFields(partial)
	if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[name]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	for k, v := range encoded {
		doc.Fields[k] = v
	}
	ut := s.now().UTC()
	if ut.Before(doc.UpdateTime) {
		ut = doc.UpdateTime
	}
	doc.UpdateTime = ut
	s.log.Debug("merged document", "name", name, "fields", len(encoded))
	return doc.clone(), nil
}

// Delete removes the document if present and reports whether anything
// was removed. Deleting an absent name is not an error. Documents in
// subcollections of the deleted document are left addressable.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return false
	}
	delete(s.docs, name)
	s.log.Debug("deleted document", "name", name)
	return true
}

// ListCollectionIDs returns the distinct immediate-child collection ids
// under the parent, which is either a document name or the database's
// root documents resource. The set is derived from stored names; an
// empty collection is indistinguishable from a nonexistent one.
func (s *Store) ListCollectionIDs(parent string) []string {
	prefix := parent + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range s.docs {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		if id, _, found := strings.Cut(rest, "/"); found {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
