// Package main implements the bananadb command-line interface.
//
// The CLI runs the collection server (`serve`), exposes the native messaging
// host (`host`), installs the host manifest for Chrome (`install-host`), and
// offers library inspection (`list`, `categories`), direct collection
// (`collect`), health reporting (`status`), notification testing, and
// configuration helpers. Commands that read the library open the SQLite
// database directly; `collect` goes through the HTTP API like the extension.
package main
