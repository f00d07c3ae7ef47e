package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/SeakMengs/DocControl/pkg/sharepoint"
)

var errUnreachable = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

type fakeTokens struct {
	token sharepoint.Token
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context, sharepoint.Credentials) (sharepoint.Token, error) {
	f.calls++
	return f.token, f.err
}

func issuedTokens() *fakeTokens {
	return &fakeTokens{token: sharepoint.Token{AccessToken: "tok", Source: sharepoint.TokenSourceClientCredentials}}
}

type putCall struct {
	driveID, itemPath, body string
	replace                 bool
}

type appendCall struct {
	driveID, sheetPath string
	values             []any
}

// fakeGraph serves sites keyed by their URL. A site URL listed in failUpload makes the
// upload fail for that site's drive.
type fakeGraph struct {
	mu sync.Mutex

	sites       map[string]sharepoint.Site
	drives      map[string][]sharepoint.Drive
	items       map[string]sharepoint.DriveItem
	failUpload  map[string]error
	appendErr   error
	updateErr   map[string]error
	lookupErr   error
	createErr   error
	listErr     error
	puts        []putCall
	updates     []string
	appends     []appendCall
	lookups     []string
	siteLookups int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		sites:      map[string]sharepoint.Site{},
		drives:     map[string][]sharepoint.Drive{},
		items:      map[string]sharepoint.DriveItem{},
		failUpload: map[string]error{},
		updateErr:  map[string]error{},
	}
}

func (g *fakeGraph) addSite(siteURL, siteID string, drives ...sharepoint.Drive) {
	g.sites[siteURL] = sharepoint.Site{ID: siteID}
	g.drives[siteID] = drives
}

func (g *fakeGraph) GetSite(_ context.Context, _, siteURL string) (*sharepoint.Site, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.siteLookups++
	if _, err := sharepoint.ParseSiteURL(siteURL); err != nil {
		return nil, err
	}
	site, ok := g.sites[siteURL]
	if !ok {
		return nil, &sharepoint.GraphError{StatusCode: 404, Code: "itemNotFound", Message: "site not found"}
	}
	return &site, nil
}

func (g *fakeGraph) ListDrives(_ context.Context, _, siteID string) ([]sharepoint.Drive, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.drives[siteID], nil
}

func (g *fakeGraph) UploadContent(_ context.Context, _, driveID, itemPath string, content io.Reader, _ int64, _ string) (*sharepoint.DriveItem, error) {
	return g.put(driveID, itemPath, content, false)
}

func (g *fakeGraph) CreateOrReplace(_ context.Context, _, driveID, itemPath string, content io.Reader, _ int64, _ string) (*sharepoint.DriveItem, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.put(driveID, itemPath, content, true)
}

func (g *fakeGraph) put(driveID, itemPath string, content io.Reader, replace bool) (*sharepoint.DriveItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	body, _ := io.ReadAll(content)
	g.puts = append(g.puts, putCall{driveID: driveID, itemPath: itemPath, body: string(body), replace: replace})
	if err := g.failUpload[driveID]; err != nil {
		return nil, err
	}
	item := sharepoint.DriveItem{
		ID:          fmt.Sprintf("%s-item-%d", driveID, len(g.puts)),
		Name:        itemPath[strings.LastIndex(itemPath, "/")+1:],
		DownloadURL: "https://download/" + driveID + "/" + itemPath,
	}
	g.items[driveID+":"+itemPath] = item
	return &item, nil
}

func (g *fakeGraph) UpdateContentByID(_ context.Context, _, driveID, itemID string, content io.Reader, _ int64, _ string) (*sharepoint.DriveItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, _ = io.ReadAll(content)
	g.updates = append(g.updates, itemID)
	if err := g.updateErr[itemID]; err != nil {
		return nil, err
	}
	return &sharepoint.DriveItem{ID: itemID}, nil
}

func (g *fakeGraph) GetItemByPath(_ context.Context, _, driveID, itemPath string) (*sharepoint.DriveItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups = append(g.lookups, itemPath)
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	item, ok := g.items[driveID+":"+itemPath]
	if !ok {
		return nil, &sharepoint.GraphError{StatusCode: 404, Code: "itemNotFound"}
	}
	return &item, nil
}

func (g *fakeGraph) AppendRow(_ context.Context, _, driveID, sheetPath string, values []any) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appends = append(g.appends, appendCall{driveID: driveID, sheetPath: sheetPath, values: values})
	if g.appendErr != nil {
		return "", g.appendErr
	}
	return "A2:F2", nil
}

type countingRecorder struct {
	destOK, destFailed       int
	docSuccesses, docFailure int
	excelFailures            int
	fallbacks                []string
}

func (r *countingRecorder) RecordDestinationUpload(success bool) {
	if success {
		r.destOK++
		return
	}
	r.destFailed++
}

func (r *countingRecorder) RecordDocumentUpload(successes, failures int) {
	r.docSuccesses, r.docFailure = successes, failures
}

func (r *countingRecorder) RecordExcelLogFailure() { r.excelFailures++ }

func (r *countingRecorder) RecordTokenFallback(source string) {
	r.fallbacks = append(r.fallbacks, source)
}

type fakeStore struct {
	puts []string
	err  error
}

func (s *fakeStore) Put(_ context.Context, directory, fileName string, r io.Reader, size int64, _ string) (StoredObject, error) {
	if s.err != nil {
		return StoredObject{}, s.err
	}
	_, _ = io.ReadAll(r)
	key := directory + "/" + fileName
	s.puts = append(s.puts, key)
	return StoredObject{Bucket: "doccontrol", Key: key, Size: size}, nil
}
