// Package httpdate formats timestamps the way HTTP headers want them:
// RFC 1123 with a fixed GMT zone, as used by Date and Last-Modified.
package httpdate

import "time"

const layout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Now returns the current time as an HTTP date string.
func Now() string {
	return Format(time.Now())
}

// Format renders t as an HTTP date string.
func Format(t time.Time) string {
	return t.UTC().Format(layout)
}
