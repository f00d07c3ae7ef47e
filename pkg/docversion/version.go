// Package docversion computes document version labels of the form "{major}.{minor}".
package docversion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type BumpType string

const (
	Minor BumpType = "minor"
	Major BumpType = "major"
)

var ErrInvalidBumpType = errors.New("version type must be minor or major")

func (b BumpType) IsValid() bool {
	return b == Minor || b == Major
}

// Parse reads "{major}.{minor}". Missing or non-numeric components count as 0,
// so "3" is 3.0 and an empty string is 0.0.
func Parse(version string) (major, minor int) {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 3)
	major = atoi(parts[0])
	if len(parts) > 1 {
		minor = atoi(parts[1])
	}
	return major, minor
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextVersion bumps current: minor increments the second component, major
// increments the first and resets the second.
func NextVersion(current string, bump BumpType) (string, error) {
	major, minor := Parse(current)

	switch bump {
	case Minor:
		minor++
	case Major:
		major++
		minor = 0
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBumpType, bump)
	}

	return fmt.Sprintf("%d.%d", major, minor), nil
}

// Resolve returns custom when it is set, otherwise the bumped version.
func Resolve(current string, bump BumpType, custom string) (string, error) {
	if c := strings.TrimSpace(custom); c != "" {
		return c, nil
	}
	return NextVersion(current, bump)
}
