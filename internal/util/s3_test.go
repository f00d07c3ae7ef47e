package util

import (
	"strings"
	"testing"
)

func TestPrepareFileName(t *testing.T) {
	got := prepareFileName("../drawing.pdf", &FileUploadOptions{DirectoryPath: GetDocumentDirectoryPath("p1", "d1")})
	if got != "projects/p1/documents/d1/drawing.pdf" {
		t.Errorf("prepareFileName() = %q", got)
	}

	got = prepareFileName("drawing.pdf", &FileUploadOptions{DirectoryPath: "projects/p1", UniquePrefix: true})
	if !strings.HasPrefix(got, "projects/p1/") || !strings.HasSuffix(got, "_drawing.pdf") {
		t.Errorf("prepareFileName() with unique prefix = %q", got)
	}
}

func TestGetDocumentVersionDirectoryPath(t *testing.T) {
	if got := GetDocumentVersionDirectoryPath("p1", "d1", "2.1"); got != "projects/p1/documents/d1/v2.1" {
		t.Errorf("GetDocumentVersionDirectoryPath() = %q", got)
	}
}
