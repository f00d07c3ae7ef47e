// Package docmeta extracts basic metadata from uploaded files.
package docmeta

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const pdfMimeType = "application/pdf"

// Info is what gets stored alongside a document.
type Info struct {
	MimeType  string
	Size      int64
	PageCount *int
}

// DetectMimeType prefers a specific client supplied type, then the file extension,
// then content sniffing.
func DetectMimeType(fileName, declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}

	if len(head) > 0 {
		mt, _, _ := mime.ParseMediaType(mimetype.Detect(head).String())
		return mt
	}
	return "application/octet-stream"
}

func IsPDF(fileName, mimeType string) bool {
	return mimeType == pdfMimeType || strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

// PageCount returns the number of pages of a PDF.
func PageCount(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf page count: %w", err)
	}
	return n, nil
}

// Inspect gathers metadata for content. A PDF that cannot be parsed is reported
// through the error while the rest of Info stays usable.
func Inspect(fileName, declaredType string, content []byte) (Info, error) {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}

	info := Info{
		MimeType: DetectMimeType(fileName, declaredType, head),
		Size:     int64(len(content)),
	}
	if !IsPDF(fileName, info.MimeType) {
		return info, nil
	}

	n, err := PageCount(bytes.NewReader(content))
	if err != nil {
		return info, err
	}
	info.PageCount = &n
	return info, nil
}
