// Package collect is the client side of the collection endpoint,
// POST /api/collect_url, which downloads, analyses, and persists an image.
//
// Failures are classified so callers can turn them into notification text:
// *APIError carries the HTTP status and the server's detail message,
// ErrDecode marks a 2xx response whose body could not be parsed, and
// ErrUnreachable marks transport failures. Describe renders any of them.
package collect
