// Package resourcepath builds and parses the hierarchical resource
// names that address documents:
//
//	projects/{project}/databases/{database}/documents/{collection}/{docId}[/{collection}/{docId}]...
//
// The tail after "documents" strictly alternates collection segments
// and document ids. A document name has an even tail ending on a
// document id; a collection name has an odd tail ending on a
// collection segment. Clients construct and parse these names
// themselves, so the format here is a bit-exact contract.
package resourcepath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath reports a resource name that does not match the
// expected prefix or alternation shape, or a segment that is empty or
// contains a reserved character.
var ErrInvalidPath = errors.New("invalid resource path")

// DocumentName is a parsed document resource name.
type DocumentName struct {
	Project  string
	Database string

	// CollectionPath is the odd-length alternating segment sequence up
	// to and including the document's collection, e.g.
	// ["users"] or ["users", "alice", "posts"].
	CollectionPath []string

	// DocumentID is the trailing document id.
	DocumentID string
}

// CollectionName is a parsed collection resource name.
type CollectionName struct {
	Project  string
	Database string

	// Path is the odd-length alternating segment sequence ending on the
	// collection segment, e.g. ["users"] or ["users", "alice", "posts"].
	Path []string
}

// Root returns the root documents resource for a project/database pair,
// the parent prefix shared by every document name in that database.
func Root(project, database string) string {
	return fmt.Sprintf("projects/%s/databases/%s/documents", project, database)
}

// BuildDocumentName validates the segments and assembles a document
// resource name. collectionPath must have odd length so that appending
// documentID yields an even alternating tail.
func BuildDocumentName(project, database string, collectionPath []string, documentID string) (string, error) {
	if len(collectionPath)%2 == 0 {
		return "", fmt.Errorf("%w: collection path must have odd length, got %d segments", ErrInvalidPath, len(collectionPath))
	}
	for _, seg := range append(append([]string{project, database}, collectionPath...), documentID) {
		if err := validateSegment(seg); err != nil {
			return "", err
		}
	}
	parts := append([]string{Root(project, database)}, collectionPath...)
	parts = append(parts, documentID)
	return strings.Join(parts, "/"), nil
}

// ParseRoot parses a database's root documents resource, the parent
// used when listing top-level collections.
func ParseRoot(name string) (project, database string, err error) {
	project, database, tail, err := splitName(name)
	if err != nil {
		return "", "", err
	}
	if len(tail) != 0 {
		return "", "", fmt.Errorf("%w: %q is not a root documents resource", ErrInvalidPath, name)
	}
	return project, database, nil
}

// ParseDocumentName is the inverse of BuildDocumentName.
func ParseDocumentName(name string) (DocumentName, error) {
	project, database, tail, err := splitName(name)
	if err != nil {
		return DocumentName{}, err
	}
	if len(tail) == 0 || len(tail)%2 != 0 {
		return DocumentName{}, fmt.Errorf("%w: %q does not name a document (%d trailing segments)", ErrInvalidPath, name, len(tail))
	}
	return DocumentName{
		Project:        project,
		Database:       database,
		CollectionPath: tail[:len(tail)-1],
		DocumentID:     tail[len(tail)-1],
	}, nil
}

// ParseCollectionName parses a collection resource name, as used for
// listing a collection's documents.
func ParseCollectionName(name string) (CollectionName, error) {
	project, database, tail, err := splitName(name)
	if err != nil {
		return CollectionName{}, err
	}
	if len(tail)%2 != 1 {
		return CollectionName{}, fmt.Errorf("%w: %q does not name a collection (%d trailing segments)", ErrInvalidPath, name, len(tail))
	}
	return CollectionName{Project: project, Database: database, Path: tail}, nil
}

// ParentOf returns the collection resource name holding the document.
func ParentOf(documentName string) (string, error) {
	d, err := ParseDocumentName(documentName)
	if err != nil {
		return "", err
	}
	return d.Parent().String(), nil
}

// String renders the canonical resource name.
func (d DocumentName) String() string {
	parts := append([]string{Root(d.Project, d.Database)}, d.CollectionPath...)
	parts = append(parts, d.DocumentID)
	return strings.Join(parts, "/")
}

// Parent returns the document's collection.
func (d DocumentName) Parent() CollectionName {
	return CollectionName{Project: d.Project, Database: d.Database, Path: d.CollectionPath}
}

// String renders the canonical resource name.
func (c CollectionName) String() string {
	return strings.Join(append([]string{Root(c.Project, c.Database)}, c.Path...), "/")
}

// ID returns the collection's own segment (the last in the path).
func (c CollectionName) ID() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}

// Doc returns the name of the document with the given id inside the
// collection.
func (c CollectionName) Doc(documentID string) DocumentName {
	return DocumentName{
		Project:        c.Project,
		Database:       c.Database,
		CollectionPath: c.Path,
		DocumentID:     documentID,
	}
}

// ValidateSegment checks a single path segment supplied out-of-band,
// such as an explicit document id from a query parameter.
func ValidateSegment(segment string) error {
	return validateSegment(segment)
}

func validateSegment(segment string) error {
	if segment == "" {
		return fmt.Errorf("%w: empty path segment", ErrInvalidPath)
	}
	if strings.Contains(segment, "/") {
		return fmt.Errorf("%w: segment %q contains %q", ErrInvalidPath, segment, "/")
	}
	if segment == "." || segment == ".." {
		return fmt.Errorf("%w: segment %q is reserved", ErrInvalidPath, segment)
	}
	return nil
}

// splitName validates the projects/{p}/databases/{d}/documents prefix
// and returns the trailing alternating segments.
func splitName(name string) (project, database string, tail []string, err error) {
	segs := strings.Split(name, "/")
	if len(segs) < 5 || segs[0] != "projects" || segs[2] != "databases" || segs[4] != "documents" {
		return "", "", nil, fmt.Errorf("%w: %q does not match projects/{project}/databases/{database}/documents/...", ErrInvalidPath, name)
	}
	project, database = segs[1], segs[3]
	if err := validateSegment(project); err != nil {
		return "", "", nil, err
	}
	if err := validateSegment(database); err != nil {
		return "", "", nil, err
	}
	tail = segs[5:]
	for _, seg := range tail {
		if err := validateSegment(seg); err != nil {
			return "", "", nil, err
		}
	}
	return project, database, tail, nil
}
