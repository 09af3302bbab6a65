// Package ansi provides ANSI escape code constants and helpers for terminal output.
// All colored/styled terminal output should reference these constants to avoid duplication.
package ansi

import "strings"

// ANSI SGR (Select Graphic Rendition) codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Blue    = "\033[34m"
	Yellow  = "\033[33m"
	Green   = "\033[32m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"
)

// Style wraps s in the given SGR codes, or returns it unchanged when color
// is off or no codes are given.
func Style(color bool, s string, codes ...string) string {
	if !color || len(codes) == 0 || s == "" {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}
