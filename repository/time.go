// Package repository contains the SQLite persistence layer. Every
// aggregate has an interface file and a sqlite_*.go implementation; all
// implementations share one *sql.DB connection pool.
package repository

import "time"

// sqliteTimeLayout is the fixed-width UTC format used for every timestamp
// column. Fixed width means lexicographic comparison in SQL equals
// chronological comparison, which the read-marker MAX() upsert and the
// unread range scans depend on.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}
