// Package preflight checks that BananaDB's directories, services, and
// browser integration are usable before the server starts or when the
// status command runs.
package preflight
