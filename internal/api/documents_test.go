package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthly/hearth/internal/config"
	"github.com/hearthly/hearth/pkg/store"
)

const testRoot = "/v1/projects/demo-hearth/databases/(default)/documents"

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Default()
	return DocumentsHandler(cfg, testLogger(), store.New(nil))
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func wireFields(fields map[string]any) map[string]any {
	return map[string]any{"fields": fields}
}

func TestCreateAndGetDocument(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, testRoot+"/users", wireFields(map[string]any{
		"name":  map[string]any{"stringValue": "John Doe"},
		"email": map[string]any{"stringValue": "john@example.com"},
		"age":   map[string]any{"integerValue": "30"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	name, _ := created["name"].(string)
	require.NotEmpty(t, name)
	assert.Equal(t, created["createTime"], created["updateTime"])

	rec = doJSON(t, h, http.MethodGet, "/v1/"+name, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, created["fields"], got["fields"])

	fields := got["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"integerValue": "30"}, fields["age"])
}

func TestCreateWithExplicitID(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, testRoot+"/users?documentId=user-1",
		wireFields(map[string]any{"name": map[string]any{"stringValue": "John Doe"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, testRoot[len("/v1/"):]+"/users/user-1", created["name"])

	// A second create at the same id conflicts.
	rec = doJSON(t, h, http.MethodPost, testRoot+"/users?documentId=user-1",
		wireFields(map[string]any{"name": map[string]any{"stringValue": "Jane Doe"}}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "ALREADY_EXISTS", errBody["status"])
}

func TestGetDocumentNotFound(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodGet, testRoot+"/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["status"])
}

func TestListDocuments(t *testing.T) {
	h := testHandler(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("%s/products?documentId=prod-%d", testRoot, i),
			wireFields(map[string]any{"n": map[string]any{"integerValue": fmt.Sprintf("%d", i)}}))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, testRoot+"/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	docs := body["documents"].([]any)
	assert.Len(t, docs, 3)

	// Listing a never-populated collection is success with no entries.
	rec = doJSON(t, h, http.MethodGet, testRoot+"/empty", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	_, present := body["documents"]
	assert.False(t, present)
}

func TestMergeDocument(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, testRoot+"/users?documentId=u1",
		wireFields(map[string]any{
			"a": map[string]any{"integerValue": "1"},
			"b": map[string]any{"integerValue": "2"},
		}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, testRoot+"/users/u1",
		wireFields(map[string]any{
			"b": map[string]any{"integerValue": "3"},
			"c": map[string]any{"integerValue": "4"},
		}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"integerValue": "1"}, fields["a"])
	assert.Equal(t, map[string]any{"integerValue": "3"}, fields["b"])
	assert.Equal(t, map[string]any{"integerValue": "4"}, fields["c"])
}

func TestMergeNotFound(t *testing.T) {
	h := testHandler(t)
	rec := doJSON(t, h, http.MethodPatch, testRoot+"/users/ghost",
		wireFields(map[string]any{"a": map[string]any{"integerValue": "1"}}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, testRoot+"/users?documentId=u1",
		wireFields(map[string]any{"a": map[string]any{"integerValue": "1"}}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, testRoot+"/users/u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, testRoot+"/users/u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Deleting a never-written name succeeds.
	rec = doJSON(t, h, http.MethodDelete, testRoot+"/users/never-there", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidPathRejected(t *testing.T) {
	h := testHandler(t)

	// PATCH of a collection name (odd tail) is a malformed document path.
	rec := doJSON(t, h, http.MethodPatch, testRoot+"/users",
		wireFields(map[string]any{"a": map[string]any{"integerValue": "1"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_ARGUMENT", errBody["status"])
}

func TestMalformedWireValueRejected(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodPost, testRoot+"/users",
		wireFields(map[string]any{
			"bad": map[string]any{"stringValue": "x", "integerValue": "1"},
		}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWrongDatabaseRejected(t *testing.T) {
	h := testHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/projects/other/databases/(default)/documents/users/u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCollectionIDsEndpoint(t *testing.T) {
	h := testHandler(t)

	for _, target := range []string{
		testRoot + "/users?documentId=alice",
		testRoot + "/products?documentId=p1",
	} {
		rec := doJSON(t, h, http.MethodPost, target, wireFields(map[string]any{}))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, testRoot+"/users/alice/posts?documentId=post1", wireFields(map[string]any{}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, testRoot+":listCollectionIds", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"products", "users"}, body["collectionIds"])

	rec = doJSON(t, h, http.MethodPost, testRoot+"/users/alice:listCollectionIds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, []any{"posts"}, body["collectionIds"])
}
