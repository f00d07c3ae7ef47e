package sharepoint

type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
}

type ItemReference struct {
	DriveID string `json:"driveId"`
	Path    string `json:"path"`
}

type DriveItem struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	WebURL          string        `json:"webUrl"`
	Size            int64         `json:"size"`
	DownloadURL     string        `json:"@microsoft.graph.downloadUrl"`
	ParentReference ItemReference `json:"parentReference"`
}

// WorkbookRange is the subset of a workbook range resource used to find free rows.
type WorkbookRange struct {
	Address     string  `json:"address"`
	RowCount    int     `json:"rowCount"`
	ColumnCount int     `json:"columnCount"`
	RowIndex    int     `json:"rowIndex"`
	Values      [][]any `json:"values"`
}

type listResponse[T any] struct {
	Value []T `json:"value"`
}
