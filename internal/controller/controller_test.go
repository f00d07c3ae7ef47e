package controller_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	appcontext "github.com/SeakMengs/DocControl/internal/app_context"
	"github.com/SeakMengs/DocControl/internal/auth"
	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/constant"
	"github.com/SeakMengs/DocControl/internal/controller"
	"github.com/SeakMengs/DocControl/internal/metrics"
	"github.com/SeakMengs/DocControl/internal/middleware"
	"github.com/SeakMengs/DocControl/internal/model"
	"github.com/SeakMengs/DocControl/internal/repository"
	"github.com/SeakMengs/DocControl/internal/route"
	"github.com/SeakMengs/DocControl/internal/secret"
	"github.com/SeakMengs/DocControl/internal/testutil"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	siteA = "https://contoso.sharepoint.com/sites/Engineering"
	siteB = "https://contoso.sharepoint.com/sites/Archive"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context, sharepoint.Credentials) (sharepoint.Token, error) {
	return sharepoint.Token{AccessToken: "tok", Source: sharepoint.TokenSourceClientCredentials}, nil
}

// graphStub serves one "Documents" drive per known site. Uploads to a drive listed
// in failDrives fail.
type graphStub struct {
	mu         sync.Mutex
	sites      map[string]string
	failDrives map[string]bool
	uploads    []string
	updates    []string
	rows       [][]any
}

func newGraphStub() *graphStub {
	return &graphStub{
		sites:      map[string]string{siteA: "site-a", siteB: "site-b"},
		failDrives: map[string]bool{},
	}
}

func (g *graphStub) GetSite(_ context.Context, _, siteURL string) (*sharepoint.Site, error) {
	id, ok := g.sites[siteURL]
	if !ok {
		return nil, &sharepoint.GraphError{StatusCode: http.StatusNotFound, Code: "itemNotFound"}
	}
	return &sharepoint.Site{ID: id}, nil
}

func (g *graphStub) ListDrives(_ context.Context, _, siteID string) ([]sharepoint.Drive, error) {
	return []sharepoint.Drive{{ID: siteID + "-drive", Name: "Documents", DriveType: "documentLibrary"}}, nil
}

func (g *graphStub) UploadContent(_ context.Context, _, driveID, itemPath string, content io.Reader, _ int64, _ string) (*sharepoint.DriveItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, _ = io.ReadAll(content)
	g.uploads = append(g.uploads, driveID+":"+itemPath)
	if g.failDrives[driveID] {
		return nil, &sharepoint.GraphError{StatusCode: http.StatusForbidden, Code: "accessDenied", Message: "access denied"}
	}
	return &sharepoint.DriveItem{
		ID:          fmt.Sprintf("%s-item-%d", driveID, len(g.uploads)),
		WebURL:      "https://contoso.sharepoint.com/" + itemPath,
		DownloadURL: "https://download/" + itemPath,
	}, nil
}

func (g *graphStub) AppendRow(_ context.Context, _, _, _ string, values []any) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = append(g.rows, values)
	return "A2:E2", nil
}

func (g *graphStub) UpdateContentByID(_ context.Context, _, _, itemID string, content io.Reader, _ int64, _ string) (*sharepoint.DriveItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, _ = io.ReadAll(content)
	g.updates = append(g.updates, itemID)
	return &sharepoint.DriveItem{ID: itemID, DownloadURL: "https://download/" + itemID}, nil
}

func (g *graphStub) GetItemByPath(context.Context, string, string, string) (*sharepoint.DriveItem, error) {
	return nil, &sharepoint.GraphError{StatusCode: http.StatusNotFound, Code: "itemNotFound"}
}

func (g *graphStub) CreateOrReplace(_ context.Context, _, driveID, itemPath string, content io.Reader, size int64, contentType string) (*sharepoint.DriveItem, error) {
	return g.UploadContent(context.Background(), "", driveID, itemPath, content, size, contentType)
}

type testServer struct {
	router http.Handler
	app    *appcontext.Application
	graph  *graphStub
	admin  *model.User
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop().Sugar()
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewRepository(db, logger)

	cfg := &config.Config{
		ENV: "test",
		Auth: config.AuthConfig{
			JWT_SECRET:  testutil.JWTSecret,
			COOKIE_NAME: "auth-token",
			TOKEN_TTL:   time.Hour,
		},
	}

	key, err := secret.GenerateKey()
	require.NoError(t, err)
	box, err := secret.NewBox(key)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, logger)
	graph := newGraphStub()

	app := &appcontext.Application{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		JWTService: auth.NewJwt(cfg.Auth, logger),
		Metrics:    m,
		SecretBox:  box,
		Uploader:   upload.NewOrchestrator(graph, staticTokens{}, m, logger),
		Versions:   upload.NewVersionUploader(graph, staticTokens{}, nil, m, logger),
	}

	r := gin.New()
	route.Register(r, controller.NewController(app), middleware.NewMiddleware(app, nil), registry)

	s := &testServer{router: r, app: app, graph: graph}
	s.admin, s.token = s.seedUser(t, "admin@contoso.com", constant.AllPermissions...)
	return s
}

// seedUser creates a user of the "contoso" organization holding a role with the given permissions.
func (s *testServer) seedUser(t *testing.T, email string, permissions ...constant.Permission) (*model.User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := s.app.Repository.User.Create(ctx, nil, &model.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		OrganizationID: "contoso",
	})
	require.NoError(t, err)

	if len(permissions) > 0 {
		perms := make([]string, len(permissions))
		for i, p := range permissions {
			perms[i] = string(p)
		}
		role, err := s.app.Repository.Role.Create(ctx, nil, &model.Role{Name: "role-" + email, Permissions: perms})
		require.NoError(t, err)
		require.NoError(t, s.app.Repository.User.AssignRoleAndDepartment(ctx, nil, user.ID, &role.ID, nil))
	}

	token, err := s.app.JWTService.GenerateToken(auth.JWTPayload{UserID: user.ID, Email: user.Email})
	require.NoError(t, err)
	return user, token
}

func (s *testServer) json(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	return testutil.DoJSON(t, s.router, method, path, body, map[string]string{"Authorization": "Bearer " + s.token})
}

func (s *testServer) multipart(t *testing.T, path string, fields map[string]string, fileName, content string) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	return testutil.Do(t, s.router, req)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data: %v", body)
	return d
}

var drawingFields = []map[string]any{
	{"id": "f-discipline", "name": "discipline", "label": "Discipline", "type": "text", "required": true},
	{"id": "f-number", "name": "number", "label": "Number", "type": "text", "required": true},
	{"id": "f-code", "name": "code", "label": "Code", "type": "text", "readOnly": true,
		"rule": map[string]any{"type": "concatenation", "sourceFields": []string{"f-discipline", "f-number"}, "formula": "{discipline}-{number}"}},
}

func (s *testServer) createProject(t *testing.T) string {
	t.Helper()
	code, body := s.json(t, http.MethodPost, "/api/v1/projects", map[string]any{
		"title":        "Bridge",
		"customFields": drawingFields,
	})
	require.Equal(t, http.StatusCreated, code, body)
	return data(t, body)["project"].(map[string]any)["id"].(string)
}

func (s *testServer) configureOrg(t *testing.T) {
	t.Helper()
	code, body := s.json(t, http.MethodPut, "/api/v1/sharepoint/config", map[string]any{
		"tenantId":     "tenant",
		"clientId":     "client",
		"clientSecret": "s3cret",
	})
	require.Equal(t, http.StatusOK, code, body)
}

func (s *testServer) addDestination(t *testing.T, projectId, name, siteURL string, enabled bool) string {
	t.Helper()
	code, body := s.json(t, http.MethodPost, "/api/v1/projects/"+projectId+"/sharepoint-configs", map[string]any{
		"name":                  name,
		"siteUrl":               siteURL,
		"folderPath":            "Drawings",
		"excelSheetPath":        "Logs/Register.xlsx#Log",
		"isExcelLoggingEnabled": true,
		"isEnabled":             enabled,
	})
	require.Equal(t, http.StatusCreated, code, body)
	return data(t, body)["config"].(map[string]any)["id"].(string)
}

func (s *testServer) upload(t *testing.T, projectId string) (int, map[string]any) {
	t.Helper()
	return s.multipart(t, "/api/v1/documents/upload", map[string]string{
		"projectId":         projectId,
		"description":       "General arrangement",
		"tags":              `["ga","bridge"]`,
		"customFieldValues": `{"discipline":"CIV","number":"001"}`,
	}, "GA plan.txt", "drawing content")
}

func TestUploadDocument(t *testing.T) {
	t.Run("organization without SharePoint", func(t *testing.T) {
		s := newTestServer(t)
		projectId := s.createProject(t)

		code, body := s.upload(t, projectId)
		assert.Equal(t, http.StatusNotFound, code, body)
	})

	t.Run("no enabled destinations", func(t *testing.T) {
		s := newTestServer(t)
		projectId := s.createProject(t)
		s.configureOrg(t)
		s.addDestination(t, projectId, "Disabled", siteA, false)

		code, body := s.upload(t, projectId)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Empty(t, s.graph.uploads)
	})

	t.Run("partial success keeps the document", func(t *testing.T) {
		s := newTestServer(t)
		projectId := s.createProject(t)
		s.configureOrg(t)
		firstId := s.addDestination(t, projectId, "Engineering", siteA, true)
		s.addDestination(t, projectId, "Archive", siteB, true)
		s.graph.failDrives["site-b-drive"] = true

		code, body := s.upload(t, projectId)
		require.Equal(t, http.StatusCreated, code, body)

		assert.Equal(t, true, body["success"])
		summary := body["summary"].(map[string]any)
		assert.EqualValues(t, 2, summary["totalConfigurations"])
		assert.EqualValues(t, 1, summary["successfulUploads"])
		assert.EqualValues(t, 1, summary["failedUploads"])
		require.Len(t, body["uploadResults"], 1)
		require.Len(t, body["uploadErrors"], 1)
		assert.Equal(t, "Archive", body["uploadErrors"].([]any)[0].(map[string]any)["configName"])

		document := body["document"].(map[string]any)
		assert.Equal(t, firstId, document["sharePointConfigId"])
		assert.Equal(t, "1.0", document["currentVersion"])
		assert.Equal(t, "Drawings/GA plan.txt", s.graph.uploads[0][len("site-a-drive:"):])

		values := document["customFieldValues"].(map[string]any)
		assert.Equal(t, "CIV-001", values["f-code"])

		require.Len(t, s.graph.rows, 1)
		assert.Equal(t, "GA plan.txt", s.graph.rows[0][0])
		assert.Equal(t, "CIV-001", s.graph.rows[0][len(s.graph.rows[0])-1])

		activity, err := s.app.Repository.ActivityLog.GetByDocumentId(context.Background(), nil, document["id"].(string))
		require.NoError(t, err)
		require.Len(t, activity, 1)
		assert.Equal(t, constant.DocumentActionUploaded, activity[0].Action)
	})

	t.Run("every destination fails", func(t *testing.T) {
		s := newTestServer(t)
		projectId := s.createProject(t)
		s.configureOrg(t)
		s.addDestination(t, projectId, "Engineering", siteA, true)
		s.addDestination(t, projectId, "Archive", siteB, true)
		s.graph.failDrives["site-a-drive"] = true
		s.graph.failDrives["site-b-drive"] = true

		code, body := s.upload(t, projectId)
		require.Equal(t, http.StatusInternalServerError, code, body)
		assert.Equal(t, false, body["success"])
		assert.Nil(t, body["document"])
		assert.Len(t, body["uploadErrors"], 2)

		documents, total, err := s.app.Repository.Document.ListByProject(context.Background(), nil, projectId, "", 1, 20)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, documents)
	})

	t.Run("missing required field", func(t *testing.T) {
		s := newTestServer(t)
		projectId := s.createProject(t)

		code, body := s.multipart(t, "/api/v1/documents/upload", map[string]string{
			"projectId":         projectId,
			"customFieldValues": `{"discipline":"CIV"}`,
		}, "a.txt", "x")
		assert.Equal(t, http.StatusBadRequest, code, body)
	})
}

func TestUploadDocumentRequiresPermission(t *testing.T) {
	s := newTestServer(t)
	projectId := s.createProject(t)

	_, readerToken := s.seedUser(t, "reader@contoso.com", constant.PermissionDocumentRead)
	s.token = readerToken

	code, body := s.upload(t, projectId)
	assert.Equal(t, http.StatusForbidden, code, body)
}

func TestUploadVersion(t *testing.T) {
	s := newTestServer(t)
	projectId := s.createProject(t)
	s.configureOrg(t)
	s.addDestination(t, projectId, "Engineering", siteA, true)

	code, body := s.upload(t, projectId)
	require.Equal(t, http.StatusCreated, code, body)
	document := body["document"].(map[string]any)
	documentId := document["id"].(string)

	code, body = s.multipart(t, "/api/v1/documents/versions", map[string]string{
		"documentId":     documentId,
		"versionType":    "major",
		"changesSummary": "Issued for construction",
	}, "GA plan rev B.txt", "revised content")
	require.Equal(t, http.StatusCreated, code, body)

	version := body["version"].(map[string]any)
	assert.Equal(t, "2.0", version["version"])
	assert.Equal(t, string(constant.StorageProviderSharePoint), version["storageProvider"])
	assert.Equal(t, "2.0", body["document"].(map[string]any)["currentVersion"])

	info := body["sharePointInfo"].(map[string]any)
	assert.Equal(t, string(upload.StrategyUpdateByID), info["strategy"])
	assert.Equal(t, []string{document["sharePointId"].(string)}, s.graph.updates)

	code, body = s.multipart(t, "/api/v1/documents/versions", map[string]string{
		"documentId":  documentId,
		"versionType": "patch",
	}, "again.txt", "x")
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = s.multipart(t, "/api/v1/documents/versions", map[string]string{
		"documentId":    documentId,
		"customVersion": "2.5",
	}, "again.txt", "x")
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "2.5", body["version"].(map[string]any)["version"])

	code, body = s.json(t, http.MethodGet, "/api/v1/documents/"+documentId+"/versions", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "2.5", data(t, body)["currentVersion"])
	versions := data(t, body)["versions"].([]any)
	require.Len(t, versions, 2)
	assert.Equal(t, "2.5", versions[0].(map[string]any)["version"])
	assert.Equal(t, "2.0", versions[1].(map[string]any)["version"])
}

func TestCustomFields(t *testing.T) {
	s := newTestServer(t)
	projectId := s.createProject(t)

	t.Run("cycle is rejected", func(t *testing.T) {
		code, body := s.json(t, http.MethodPut, "/api/v1/projects/"+projectId+"/custom-fields", map[string]any{
			"customFields": []map[string]any{
				{"id": "a", "name": "a", "type": "text", "rule": map[string]any{"type": "concatenation", "sourceFields": []string{"b"}, "formula": "{b}"}},
				{"id": "b", "name": "b", "type": "text", "rule": map[string]any{"type": "concatenation", "sourceFields": []string{"a"}, "formula": "{a}"}},
			},
		})
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "Custom fields contain a circular dependency", body["message"])
	})

	t.Run("compute after a change", func(t *testing.T) {
		code, body := s.json(t, http.MethodPost, "/api/v1/projects/"+projectId+"/custom-fields/compute", map[string]any{
			"values":     map[string]any{"discipline": "STR", "number": "042", "code": "stale"},
			"changedKey": "discipline",
		})
		require.Equal(t, http.StatusOK, code, body)
		values := data(t, body)["values"].(map[string]any)
		assert.Equal(t, "STR-042", values["f-code"])
	})

	t.Run("source candidates exclude dependents", func(t *testing.T) {
		code, body := s.json(t, http.MethodGet, "/api/v1/projects/"+projectId+"/custom-fields/f-discipline/source-candidates", nil)
		require.Equal(t, http.StatusOK, code, body)

		var ids []string
		for _, c := range data(t, body)["candidates"].([]any) {
			ids = append(ids, c.(map[string]any)["id"].(string))
		}
		assert.Equal(t, []string{"f-number"}, ids)
	})

	t.Run("unknown field", func(t *testing.T) {
		code, _ := s.json(t, http.MethodGet, "/api/v1/projects/"+projectId+"/custom-fields/missing/source-candidates", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestOrgConfigHidesSecret(t *testing.T) {
	s := newTestServer(t)
	s.configureOrg(t)

	code, body := s.json(t, http.MethodGet, "/api/v1/sharepoint/config", nil)
	require.Equal(t, http.StatusOK, code, body)
	cfg := data(t, body)["config"].(map[string]any)
	assert.Equal(t, true, cfg["hasClientSecret"])
	assert.NotContains(t, cfg, "clientSecret")

	stored, err := s.app.Repository.SharePointConfig.GetOrgConfig(context.Background(), nil, "contoso")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.ClientSecret)
	opened, err := s.app.SecretBox.Open(stored.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", opened)
}

func TestProjectSharePointConfigs(t *testing.T) {
	s := newTestServer(t)
	projectId := s.createProject(t)

	code, body := s.json(t, http.MethodPost, "/api/v1/projects/"+projectId+"/sharepoint-configs", map[string]any{
		"name":    "Bad",
		"siteUrl": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = s.json(t, http.MethodPost, "/api/v1/projects/"+projectId+"/sharepoint-configs", map[string]any{
		"name":                  "Bad sheet",
		"siteUrl":               siteA,
		"excelSheetPath":        "Register.csv",
		"isExcelLoggingEnabled": true,
	})
	assert.Equal(t, http.StatusBadRequest, code, body)

	configId := s.addDestination(t, projectId, "Engineering", siteA, true)

	code, body = s.json(t, http.MethodPut, "/api/v1/projects/"+projectId+"/sharepoint-configs/"+configId, map[string]any{
		"name":      "Engineering",
		"siteUrl":   siteB,
		"isEnabled": false,
	})
	require.Equal(t, http.StatusOK, code, body)
	updated := data(t, body)["config"].(map[string]any)
	assert.Equal(t, siteB, updated["siteUrl"])
	assert.Equal(t, false, updated["isEnabled"])

	code, _ = s.json(t, http.MethodDelete, "/api/v1/projects/"+projectId+"/sharepoint-configs/"+configId, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.json(t, http.MethodDelete, "/api/v1/projects/"+projectId+"/sharepoint-configs/"+configId, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProjectIsolation(t *testing.T) {
	s := newTestServer(t)
	projectId := s.createProject(t)

	outsider, err := s.app.Repository.User.Create(context.Background(), nil, &model.User{
		Email: "someone@fabrikam.com", FirstName: "Other", OrganizationID: "fabrikam",
	})
	require.NoError(t, err)
	s.token, err = s.app.JWTService.GenerateToken(auth.JWTPayload{UserID: outsider.ID, Email: outsider.Email})
	require.NoError(t, err)

	code, _ := s.json(t, http.MethodGet, "/api/v1/projects/"+projectId, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRolesRejectUnknownPermissions(t *testing.T) {
	s := newTestServer(t)

	code, body := s.json(t, http.MethodPost, "/api/v1/roles", map[string]any{
		"name":        "Editor",
		"permissions": []string{string(constant.PermissionDocumentRead), "documents:destroy"},
	})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = s.json(t, http.MethodPost, "/api/v1/roles", map[string]any{
		"name":        "Editor",
		"permissions": []string{string(constant.PermissionDocumentRead)},
	})
	require.Equal(t, http.StatusCreated, code, body)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := testutil.DoJSON(t, s.router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "ok", data(t, body)["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	s.token = "garbage"

	code, body := s.json(t, http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, code, body)
}
