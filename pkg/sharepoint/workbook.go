package sharepoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func worksheetPath(driveID, itemID, sheet string) string {
	return fmt.Sprintf("/drives/%s/items/%s/workbook/worksheets/%s", driveID, itemID, url.PathEscape(sheet))
}

func (c *Client) GetUsedRange(ctx context.Context, token, driveID, itemID, sheet string) (*WorkbookRange, error) {
	var r WorkbookRange
	path := worksheetPath(driveID, itemID, sheet) + "/usedRange(valuesOnly=true)"
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// PatchRange writes values into address, e.g. "A5:F5".
func (c *Client) PatchRange(ctx context.Context, token, driveID, itemID, sheet, address string, values [][]any) error {
	body, size, err := jsonBody(map[string]any{"values": values})
	if err != nil {
		return err
	}
	path := worksheetPath(driveID, itemID, sheet) + "/range(address='" + url.PathEscape(address) + "')"
	return c.do(ctx, request{
		method:      http.MethodPatch,
		path:        path,
		token:       token,
		body:        body,
		size:        size,
		contentType: "application/json",
	}, nil)
}

// AppendRow writes values into the first row below the used range of the worksheet
// named by sheetPath ("Folder/Log.xlsx#Sheet"). It returns the written address.
func (c *Client) AppendRow(ctx context.Context, token, driveID, sheetPath string, values []any) (string, error) {
	if len(values) == 0 {
		return "", nil
	}

	workbook, sheet, err := ParseSheetPath(sheetPath)
	if err != nil {
		return "", err
	}

	item, err := c.GetItemByPath(ctx, token, driveID, workbook)
	if err != nil {
		return "", fmt.Errorf("failed to locate workbook %q: %w", workbook, err)
	}

	used, err := c.GetUsedRange(ctx, token, driveID, item.ID, sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read used range of %q: %w", sheet, err)
	}

	row := NextEmptyRow(used)
	address := RowAddress(row, len(values))
	if err := c.PatchRange(ctx, token, driveID, item.ID, sheet, address, [][]any{values}); err != nil {
		return "", fmt.Errorf("failed to write row %s: %w", address, err)
	}
	return address, nil
}

// firstLogRow leaves row 1 of a log sheet to the header.
const firstLogRow = 2

// NextEmptyRow returns the 1-based row directly below the used range.
// An empty sheet reports a used range of A1 with no values, which yields firstLogRow.
func NextEmptyRow(r *WorkbookRange) int {
	if r == nil || valuesEmpty(r.Values) {
		return firstLogRow
	}

	if last, ok := lastRowOfAddress(r.Address); ok {
		return last + 1
	}
	return r.RowIndex + r.RowCount + 1
}

func valuesEmpty(values [][]any) bool {
	for _, row := range values {
		for _, v := range row {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			return false
		}
	}
	return true
}

// lastRowOfAddress reads 12 from "Sheet1!A1:F12" or "A12".
func lastRowOfAddress(address string) (int, bool) {
	if i := strings.LastIndexByte(address, '!'); i >= 0 {
		address = address[i+1:]
	}
	if i := strings.LastIndexByte(address, ':'); i >= 0 {
		address = address[i+1:]
	}
	address = strings.ReplaceAll(address, "$", "")

	digits := strings.TrimLeft(address, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ColumnLetter converts a 1-based column number to its letter form: 1 is A, 27 is AA.
func ColumnLetter(n int) string {
	if n <= 0 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// RowAddress is the address of columns 1..cols on row, e.g. "A5:F5".
func RowAddress(row, cols int) string {
	if cols <= 1 {
		return fmt.Sprintf("A%d", row)
	}
	return fmt.Sprintf("A%d:%s%d", row, ColumnLetter(cols), row)
}
