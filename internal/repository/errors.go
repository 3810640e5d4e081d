// Package repository contains the data access layer. Repositories
// return errors from the apperr taxonomy so handlers can translate
// them into HTTP statuses without inspecting driver errors.
package repository

import "strings"

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062). Matching on the error text avoids importing the
// driver's error types.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
