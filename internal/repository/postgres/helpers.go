package postgres

import "time"

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// nonNil returns s, or an empty slice when s is nil, so JSON renders [] and
// pgx encodes an empty array instead of NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
