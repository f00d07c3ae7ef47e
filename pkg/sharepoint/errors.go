package sharepoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	ErrInvalidSiteURL           = errors.New("invalid SharePoint site URL, expected https://{host}/sites/{name}")
	ErrConditionalAccessBlocked = errors.New("token request blocked by conditional access policy (AADSTS53003)")
	ErrLibraryNotFound          = errors.New("no document library found on site")
	ErrInvalidSheetPath         = errors.New("invalid Excel sheet path")
)

// GraphError is a non 2xx response from Microsoft Graph.
type GraphError struct {
	StatusCode int    `json:"-"`
	Method     string `json:"-"`
	Path       string `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *GraphError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph %s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge) && ge.StatusCode == 404
}

// IsNetworkError reports whether err means Graph could not be reached at all,
// as opposed to Graph answering with an error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var ge *GraphError
	if errors.As(err, &ge) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded)
}
