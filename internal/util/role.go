package util

import (
	"slices"

	"github.com/SeakMengs/DocControl/internal/constant"
)

// UnknownPermissions returns the entries of perms that are not a known permission.
func UnknownPermissions(perms []string) []string {
	var unknown []string
	for _, p := range perms {
		if !slices.Contains(constant.AllPermissions, constant.Permission(p)) {
			unknown = append(unknown, p)
		}
	}
	return unknown
}

// HasPermission checks that every required permission is granted.
func HasPermission(granted []string, required []constant.Permission) bool {
	for _, permission := range required {
		if !slices.Contains(granted, string(permission)) {
			return false
		}
	}
	return true
}
