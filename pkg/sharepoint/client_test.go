package sharepoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	endpoint string
	method   string
	status   int
	err      error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) RecordExternalAPICall(endpoint, method string, statusCode int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{endpoint: endpoint, method: method, status: statusCode, err: err})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &fakeRecorder{}
	return NewClient(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()), WithRecorder(rec)), rec
}

func TestClient_GetSiteAndDrives(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/sites/contoso.sharepoint.com:/sites/eng":
			writeJSON(w, http.StatusOK, Site{ID: "contoso.sharepoint.com,abc,def", Name: "eng"})
		case "/sites/contoso.sharepoint.com,abc,def/drives":
			writeJSON(w, http.StatusOK, map[string]any{"value": []Drive{
				{ID: "d1", Name: "Documents", DriveType: "documentLibrary"},
				{ID: "d2", Name: "Drawings", DriveType: "documentLibrary"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	site, err := client.GetSite(ctx, "tok", "https://contoso.sharepoint.com/sites/eng/Shared%20Documents")
	require.NoError(t, err)
	assert.Equal(t, "contoso.sharepoint.com,abc,def", site.ID)

	drives, err := client.ListDrives(ctx, "tok", site.ID)
	require.NoError(t, err)
	require.Len(t, drives, 2)

	drive, err := ResolveLibrary(drives, "drawings")
	require.NoError(t, err)
	assert.Equal(t, "d2", drive.ID)

	assert.Len(t, rec.calls, 2)
	assert.Equal(t, http.StatusOK, rec.calls[0].status)
}

func TestClient_GetSiteRejectsBadURLWithoutCallingGraph(t *testing.T) {
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	_, err := client.GetSite(context.Background(), "tok", "https://contoso.sharepoint.com/teams/eng")
	assert.ErrorIs(t, err, ErrInvalidSiteURL)
	assert.Empty(t, rec.calls)
}

func TestResolveLibrary(t *testing.T) {
	docs := Drive{ID: "docs", Name: "Documents", DriveType: "documentLibrary"}
	drawings := Drive{ID: "drw", Name: "Drawings", DriveType: "documentLibrary"}
	lib := Drive{ID: "lib", Name: "Archive", DriveType: "documentLibrary"}
	personal := Drive{ID: "me", Name: "OneDrive", DriveType: "personal"}

	tests := []struct {
		name   string
		drives []Drive
		want   string
		wanted string
	}{
		{"exact match", []Drive{docs, drawings}, "drw", "Drawings"},
		{"case insensitive", []Drive{docs, drawings}, "drw", "DRAWINGS"},
		{"falls back to Documents", []Drive{drawings, docs}, "docs", "Specs"},
		{"falls back to first library", []Drive{personal, lib}, "lib", "Specs"},
		{"falls back to first drive", []Drive{personal}, "me", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLibrary(tt.drives, tt.wanted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := ResolveLibrary(nil, "Documents")
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestClient_Uploads(t *testing.T) {
	var gotBody, gotContentType, gotConflict string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		gotConflict = r.URL.Query().Get("@microsoft.graph.conflictBehavior")

		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/drives/d1/root:/Projects/P 1/a.pdf:/content":
			writeJSON(w, http.StatusCreated, DriveItem{ID: "item-1", Name: "a.pdf", WebURL: "https://x/a.pdf", Size: int64(len(body))})
		case r.Method == http.MethodPut && r.URL.Path == "/drives/d1/items/item-1/content":
			writeJSON(w, http.StatusOK, DriveItem{ID: "item-1", Name: "a.pdf"})
		case r.Method == http.MethodGet && r.URL.Path == "/drives/d1/root:/Projects/P 1/a.pdf":
			writeJSON(w, http.StatusOK, DriveItem{ID: "item-1", Name: "a.pdf"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "itemNotFound", "message": "The resource could not be found."}})
		}
	})
	ctx := context.Background()

	item, err := client.UploadContent(ctx, "tok", "d1", "Projects/P 1/a.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, int64(4), item.Size)
	assert.Equal(t, "%PDF", gotBody)
	assert.Equal(t, "application/pdf", gotContentType)
	assert.Empty(t, gotConflict)

	_, err = client.CreateOrReplace(ctx, "tok", "d1", "/Projects/P 1/a.pdf", strings.NewReader("v2"), 2, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "replace", gotConflict)

	_, err = client.UpdateContentByID(ctx, "tok", "d1", "item-1", strings.NewReader("v3"), 2, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "v3", gotBody)

	found, err := client.GetItemByPath(ctx, "tok", "d1", "Projects/P 1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "item-1", found.ID)

	_, err = client.GetItemByPath(ctx, "tok", "d1", "missing.pdf")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNetworkError(err))

	var ge *GraphError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "itemNotFound", ge.Code)
	assert.Equal(t, http.MethodGet, ge.Method)
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	_, err := client.ListDrives(context.Background(), "tok", "site")
	var ge *GraphError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, http.StatusBadGateway, ge.StatusCode)
	assert.Equal(t, "upstream unavailable", ge.Message)
}

func TestClient_AppendRow(t *testing.T) {
	var patched struct {
		Values [][]any `json:"values"`
	}
	var patchedPath string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/drives/d1/root:/Logs/Register.xlsx":
			writeJSON(w, http.StatusOK, DriveItem{ID: "wb1", Name: "Register.xlsx"})
		case r.Method == http.MethodGet && r.URL.Path == "/drives/d1/items/wb1/workbook/worksheets/Upload Log/usedRange(valuesOnly=true)":
			writeJSON(w, http.StatusOK, WorkbookRange{Address: "'Upload Log'!A1:C4", RowCount: 4, Values: [][]any{{"File"}}})
		case r.Method == http.MethodPatch:
			patchedPath = r.URL.Path
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			writeJSON(w, http.StatusOK, map[string]any{})
		default:
			http.NotFound(w, r)
		}
	})

	address, err := client.AppendRow(context.Background(), "tok", "d1", "Logs/Register.xlsx#Upload Log", []any{"a.pdf", "alice@example.com", "Yes"})
	require.NoError(t, err)
	assert.Equal(t, "A5:C5", address)
	assert.Equal(t, "/drives/d1/items/wb1/workbook/worksheets/Upload Log/range(address='A5:C5')", patchedPath)
	assert.Equal(t, [][]any{{"a.pdf", "alice@example.com", "Yes"}}, patched.Values)
}

func TestClient_AppendRowMissingWorkbook(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.AppendRow(context.Background(), "tok", "d1", "Register.xlsx", []any{"x"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = client.AppendRow(context.Background(), "tok", "d1", "notes.txt", []any{"x"})
	assert.ErrorIs(t, err, ErrInvalidSheetPath)
}

func TestIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(url))
	_, err := client.ListDrives(context.Background(), "tok", "site")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))

	assert.True(t, IsNetworkError(fmt.Errorf("upload: %w", context.DeadlineExceeded)))
	assert.False(t, IsNetworkError(context.Canceled))
	assert.False(t, IsNetworkError(&GraphError{StatusCode: 503}))
	assert.False(t, IsNetworkError(nil))
}
