package postgres

// effectiveLimit applies a default when the caller passes a non-positive
// limit, the same convention spec.md section 4.9 uses for the unread
// replay count (default 20).
func effectiveLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
