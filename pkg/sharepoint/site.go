package sharepoint

import (
	"fmt"
	"regexp"
	"strings"
)

var siteURLPattern = regexp.MustCompile(`^https://([^/\s]+)/sites/([^/?#\s]+)`)

type SiteRef struct {
	Host string
	Name string
}

// ParseSiteURL extracts host and site name from https://{host}/sites/{name}[/...].
func ParseSiteURL(raw string) (SiteRef, error) {
	m := siteURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return SiteRef{}, fmt.Errorf("%w: %q", ErrInvalidSiteURL, raw)
	}
	return SiteRef{Host: m[1], Name: m[2]}, nil
}

// GraphPath is the Graph address of the site, e.g. /sites/contoso.sharepoint.com:/sites/eng
func (s SiteRef) GraphPath() string {
	return fmt.Sprintf("/sites/%s:/sites/%s", s.Host, s.Name)
}

// ParseSheetPath splits "Folder/Log.xlsx#Sheet" into the workbook path and the
// worksheet name. The worksheet defaults to Sheet1.
func ParseSheetPath(raw string) (workbook string, sheet string, err error) {
	raw = strings.TrimSpace(raw)
	workbook, sheet, _ = strings.Cut(raw, "#")
	workbook = strings.Trim(workbook, "/ ")
	sheet = strings.TrimSpace(sheet)

	if workbook == "" || !strings.HasSuffix(strings.ToLower(workbook), ".xlsx") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSheetPath, raw)
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	return workbook, sheet, nil
}

// JoinItemPath joins a folder path and a file name into a drive relative item path.
func JoinItemPath(folder, fileName string) string {
	folder = strings.Trim(strings.ReplaceAll(folder, "\\", "/"), "/ ")
	if folder == "" {
		return fileName
	}
	return folder + "/" + fileName
}
