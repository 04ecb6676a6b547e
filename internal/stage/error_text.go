package stage

import "strings"

// sanitizeErrorMessage collapses whitespace so script errors fit one log
// line.
func sanitizeErrorMessage(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if s == "" {
		return "error"
	}
	return s
}
