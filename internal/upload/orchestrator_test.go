package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SeakMengs/DocControl/pkg/fieldrule"
	"github.com/SeakMengs/DocControl/pkg/sharepoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var library = sharepoint.Drive{Name: "Documents", DriveType: "documentLibrary"}

func drive(id string) sharepoint.Drive {
	d := library
	d.ID = id
	return d
}

func threeDestinations(g *fakeGraph) []Destination {
	g.addSite("https://contoso.sharepoint.com/sites/a", "site-a", drive("drive-a"))
	g.addSite("https://contoso.sharepoint.com/sites/b", "site-b", drive("drive-b"))
	g.addSite("https://contoso.sharepoint.com/sites/c", "site-c", drive("drive-c"))

	return []Destination{
		{ID: "cfg-a", Name: "A", SiteURL: "https://contoso.sharepoint.com/sites/a", DocumentLibrary: "Documents", FolderPath: "Incoming"},
		{ID: "cfg-b", Name: "B", SiteURL: "https://contoso.sharepoint.com/sites/b", DocumentLibrary: "Documents"},
		{ID: "cfg-c", Name: "C", SiteURL: "https://contoso.sharepoint.com/sites/c", DocumentLibrary: "Documents"},
	}
}

func testFile() File {
	return File{Name: "drawing.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.7")}
}

func TestUploadAll_PartialFailure(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	g.failUpload["drive-a"] = &sharepoint.GraphError{StatusCode: 403, Code: "accessDenied", Message: "denied"}

	rec := &countingRecorder{}
	o := NewOrchestrator(g, issuedTokens(), rec, nil)

	outcome, err := o.UploadAll(context.Background(), Request{File: testFile(), Destinations: dests, UploadedBy: "alice@example.com"})
	require.NoError(t, err)

	require.Len(t, outcome.Results, 2)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "cfg-a", outcome.Errors[0].ConfigID)
	assert.Contains(t, outcome.Errors[0].Error, "accessDenied")

	primary, ok := outcome.Primary()
	require.True(t, ok)
	assert.Equal(t, "cfg-b", primary.ConfigID)
	assert.Equal(t, "drive-b", primary.DriveID)
	assert.Equal(t, "Documents/drawing.pdf", primary.SharePointPath)
	assert.Equal(t, "cfg-c", outcome.Results[1].ConfigID)

	assert.Equal(t, Summary{TotalConfigurations: 3, SuccessfulUploads: 2, FailedUploads: 1}, outcome.Summary())
	assert.Equal(t, 2, rec.destOK)
	assert.Equal(t, 1, rec.destFailed)
	assert.Equal(t, 2, rec.docSuccesses)

	require.Len(t, g.puts, 3)
	assert.Equal(t, "Incoming/drawing.pdf", g.puts[0].itemPath)
	assert.Equal(t, "%PDF-1.7", g.puts[2].body, "every destination receives the full content")
}

func TestUploadAll_AllFail(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	for _, id := range []string{"drive-a", "drive-b", "drive-c"} {
		g.failUpload[id] = &sharepoint.GraphError{StatusCode: 507, Message: "quota exceeded"}
	}

	o := NewOrchestrator(g, issuedTokens(), nil, nil)
	outcome, err := o.UploadAll(context.Background(), Request{File: testFile(), Destinations: dests})

	assert.ErrorIs(t, err, ErrAllUploadsFailed)
	assert.Empty(t, outcome.Results)
	require.Len(t, outcome.Errors, 3)
	assert.Equal(t, []string{"cfg-a", "cfg-b", "cfg-c"}, []string{outcome.Errors[0].ConfigID, outcome.Errors[1].ConfigID, outcome.Errors[2].ConfigID})
	_, ok := outcome.Primary()
	assert.False(t, ok)
	assert.Equal(t, Summary{TotalConfigurations: 3, FailedUploads: 3}, outcome.Summary())
}

func TestUploadAll_InvalidSiteURLIsIsolated(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	dests[1].SiteURL = "https://contoso.sharepoint.com/teams/b"

	o := NewOrchestrator(g, issuedTokens(), nil, nil)
	outcome, err := o.UploadAll(context.Background(), Request{File: testFile(), Destinations: dests})
	require.NoError(t, err)

	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "cfg-b", outcome.Errors[0].ConfigID)
	assert.Len(t, outcome.Results, 2)
}

func TestUploadAll_TokenFailureIsPerDestination(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	tokens := &fakeTokens{err: sharepoint.ErrConditionalAccessBlocked}

	o := NewOrchestrator(g, tokens, nil, nil)
	outcome, err := o.UploadAll(context.Background(), Request{File: testFile(), Destinations: dests})

	assert.ErrorIs(t, err, ErrAllUploadsFailed)
	assert.Len(t, outcome.Errors, 3)
	assert.Equal(t, 3, tokens.calls)
	assert.Empty(t, g.puts)
}

func TestUploadAll_ExcelLoggingIsBestEffort(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	dests[0].IsExcelLoggingEnabled = true
	dests[0].ExcelSheetPath = "Logs/Register.xlsx#Uploads"
	dests[2].IsExcelLoggingEnabled = true
	dests[2].ExcelSheetPath = "Register.xlsx"
	g.appendErr = errors.New("workbook locked")

	fields := []fieldrule.CustomField{
		{ID: "f1", Name: "status", Type: fieldrule.FieldTypeSelect},
		{ID: "f2", Name: "issued", Type: fieldrule.FieldTypeDate},
		{ID: "f3", Name: "confidential", Type: fieldrule.FieldTypeBoolean},
	}
	values := fieldrule.Values{"f1": "IFC", "f2": "2024-05-01T09:00:00Z", "f3": true}

	rec := &countingRecorder{}
	o := NewOrchestrator(g, &fakeTokens{token: sharepoint.Token{AccessToken: "dev", Source: sharepoint.TokenSourceDevOverride}}, rec, nil)
	o.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }

	outcome, err := o.UploadAll(context.Background(), Request{File: testFile(), Destinations: dests, UploadedBy: "bob", Fields: fields, Values: values})
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 3)
	assert.Empty(t, outcome.Errors)

	require.Len(t, g.appends, 2)
	assert.Equal(t, "drive-a", g.appends[0].driveID)
	assert.Equal(t, "Logs/Register.xlsx#Uploads", g.appends[0].sheetPath)
	assert.Equal(t, []any{"drawing.pdf", "bob", "2024-05-02", "IFC", "2024-05-01", "Yes"}, g.appends[0].values)
	assert.Equal(t, 2, rec.excelFailures)
	assert.Len(t, rec.fallbacks, 3)
}

func TestCheckDestinations(t *testing.T) {
	assert.ErrorIs(t, CheckDestinations(nil), ErrNoEnabledConfigs)

	bad := []Destination{{SiteURL: "http://x/sites/a"}, {SiteURL: "not a url"}}
	assert.ErrorIs(t, CheckDestinations(bad), ErrAllSiteURLsInvalid)

	mixed := append(bad, Destination{SiteURL: "https://contoso.sharepoint.com/sites/ok"})
	assert.NoError(t, CheckDestinations(mixed))
}

func TestUploadAll_CancelledContext(t *testing.T) {
	g := newFakeGraph()
	dests := threeDestinations(g)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(g, issuedTokens(), nil, nil)
	outcome, err := o.UploadAll(ctx, Request{File: testFile(), Destinations: dests})
	assert.ErrorIs(t, err, ErrAllUploadsFailed)
	assert.Len(t, outcome.Errors, 3)
	assert.Empty(t, g.puts)
}
