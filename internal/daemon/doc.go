// Package daemon coordinates the long-running BananaDB collection server.
//
// It wires configuration, the library store, and the HTTP server into a single
// lifecycle with flock-based locking to prevent multiple instances on the same
// data directory. Startup runs the server preflight checks and logs failures
// without refusing to start, since a missing vision key still allows images
// to be collected with placeholder analysis.
package daemon
