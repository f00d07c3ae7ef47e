package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Example output for "ex.txt": "V1StGXR8Z5_ex.txt"
// Falls back to a nanosecond timestamp if the random source fails.
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix, err := GenerateNChar(10)
	if err != nil {
		uniquePrefix = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", uniquePrefix, filepath.Base(fileName))
}

// SanitizeFileName strips any directory part and characters SharePoint rejects in item names.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	replacer := strings.NewReplacer(
		"\"", "_", "*", "_", ":", "_", "<", "_", ">", "_", "?", "_", "|", "_", "#", "_", "%", "_",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
