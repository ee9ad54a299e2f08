package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/hearthly/hearth/internal/config"
	"github.com/hearthly/hearth/pkg/resourcepath"
	"github.com/hearthly/hearth/pkg/store"
	"github.com/hearthly/hearth/pkg/wirevalue"
)

const listCollectionIDsSuffix = ":listCollectionIds"

// documentResource is the single-document response envelope.
type documentResource struct {
	Name       string                     `json:"name"`
	Fields     map[string]wirevalue.Value `json:"fields,omitempty"`
	CreateTime string                     `json:"createTime"`
	UpdateTime string                     `json:"updateTime"`
}

// documentBody is the write request envelope. Fields carry wire
// values; unknown attributes (e.g. an echoed name) are ignored.
type documentBody struct {
	Fields map[string]wirevalue.Value `json:"fields"`
}

type listDocumentsResponse struct {
	Documents []documentResource `json:"documents,omitempty"`
}

type listCollectionIDsResponse struct {
	CollectionIDs []string `json:"collectionIds,omitempty"`
}

func newDocumentResource(doc store.Document) documentResource {
	return documentResource{
		Name:       doc.Name,
		Fields:     doc.Fields,
		CreateTime: doc.CreateTime.UTC().Format(time.RFC3339Nano),
		UpdateTime: doc.UpdateTime.UTC().Format(time.RFC3339Nano),
	}
}

// DocumentsHandler serves the v1 document routes under
// /v1/projects/{project}/databases/{database}/documents...
//
//	GET    document name    -> document
//	GET    collection name  -> {"documents": [...]}
//	POST   collection name  -> create (optional ?documentId=)
//	PATCH  document name    -> field-level merge
//	DELETE document name    -> {}
//	POST   parent:listCollectionIds -> {"collectionIds": [...]}
func DocumentsHandler(cfg *config.Config, log hclog.Logger, s *store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/"), "/")

		if strings.HasSuffix(name, listCollectionIDsSuffix) {
			handleListCollectionIDs(w, r, cfg, log, s, strings.TrimSuffix(name, listCollectionIDsSuffix))
			return
		}

		switch r.Method {
		case http.MethodGet:
			if coll, err := resourcepath.ParseCollectionName(name); err == nil {
				handleListDocuments(w, cfg, log, s, coll)
				return
			}
			handleGetDocument(w, cfg, log, s, name)
		case http.MethodPost:
			handleCreateDocument(w, r, cfg, log, s, name)
		case http.MethodPatch:
			handleMergeDocument(w, r, cfg, log, s, name)
		case http.MethodDelete:
			handleDeleteDocument(w, cfg, log, s, name)
		default:
			respondError(w, log, http.StatusMethodNotAllowed, "INVALID_ARGUMENT",
				fmt.Sprintf("method %s not allowed", r.Method))
		}
	})
}

// checkDatabase rejects names addressing any project/database pair
// other than the single configured instance.
func checkDatabase(w http.ResponseWriter, cfg *config.Config, log hclog.Logger, project, database string) bool {
	if project != cfg.ProjectID || database != cfg.DatabaseID {
		respondError(w, log, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("database projects/%s/databases/%s not found", project, database))
		return false
	}
	return true
}

func decodeDocumentBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body documentBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: request body: %v", wirevalue.ErrMalformedValue, err)
	}
	// Round the submitted envelope through the codec: this validates
	// every wire value and hands the store native values, matching the
	// store's create/merge contract.
	return wirevalue.DecodeFields(body.Fields)
}

func handleGetDocument(w http.ResponseWriter, cfg *config.Config, log hclog.Logger, s *store.Store, name string) {
	docName, err := resourcepath.ParseDocumentName(name)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	if !checkDatabase(w, cfg, log, docName.Project, docName.Database) {
		return
	}
	doc, ok := s.Get(docName.String())
	if !ok {
		respondError(w, log, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("document %s not found", name))
		return
	}
	respondJSON(w, log, http.StatusOK, newDocumentResource(doc))
}

func handleListDocuments(w http.ResponseWriter, cfg *config.Config, log hclog.Logger, s *store.Store, coll resourcepath.CollectionName) {
	if !checkDatabase(w, cfg, log, coll.Project, coll.Database) {
		return
	}
	docs := s.List(coll)
	resp := listDocumentsResponse{}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, newDocumentResource(doc))
	}
	respondJSON(w, log, http.StatusOK, resp)
}

func handleCreateDocument(w http.ResponseWriter, r *http.Request, cfg *config.Config, log hclog.Logger, s *store.Store, name string) {
	coll, err := resourcepath.ParseCollectionName(name)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	if !checkDatabase(w, cfg, log, coll.Project, coll.Database) {
		return
	}
	fields, err := decodeDocumentBody(r)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	doc, err := s.Create(coll, r.URL.Query().Get("documentId"), fields)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	respondJSON(w, log, http.StatusOK, newDocumentResource(doc))
}

func handleMergeDocument(w http.ResponseWriter, r *http.Request, cfg *config.Config, log hclog.Logger, s *store.Store, name string) {
	docName, err := resourcepath.ParseDocumentName(name)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	if !checkDatabase(w, cfg, log, docName.Project, docName.Database) {
		return
	}
	fields, err := decodeDocumentBody(r)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	doc, err := s.Merge(docName.String(), fields)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	respondJSON(w, log, http.StatusOK, newDocumentResource(doc))
}

func handleDeleteDocument(w http.ResponseWriter, cfg *config.Config, log hclog.Logger, s *store.Store, name string) {
	docName, err := resourcepath.ParseDocumentName(name)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	if !checkDatabase(w, cfg, log, docName.Project, docName.Database) {
		return
	}
	// Deletes are idempotent: removing an absent document succeeds.
	s.Delete(docName.String())
	respondJSON(w, log, http.StatusOK, struct{}{})
}

func handleListCollectionIDs(w http.ResponseWriter, r *http.Request, cfg *config.Config, log hclog.Logger, s *store.Store, parent string) {
	if r.Method != http.MethodPost {
		respondError(w, log, http.StatusMethodNotAllowed, "INVALID_ARGUMENT",
			fmt.Sprintf("method %s not allowed", r.Method))
		return
	}
	// The parent is the database root or a document name.
	if project, database, err := resourcepath.ParseRoot(parent); err == nil {
		if !checkDatabase(w, cfg, log, project, database) {
			return
		}
		respondJSON(w, log, http.StatusOK, listCollectionIDsResponse{CollectionIDs: s.ListCollectionIDs(parent)})
		return
	}
	docName, err := resourcepath.ParseDocumentName(parent)
	if err != nil {
		respondStoreError(w, log, err)
		return
	}
	if !checkDatabase(w, cfg, log, docName.Project, docName.Database) {
		return
	}
	respondJSON(w, log, http.StatusOK, listCollectionIDsResponse{CollectionIDs: s.ListCollectionIDs(docName.String())})
}
