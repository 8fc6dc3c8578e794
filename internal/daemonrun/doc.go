// Package daemonrun assembles the two BananaDB processes from configuration:
// the collection server (library store, vision client, image fetcher, HTTP
// API, single-instance daemon) and the native messaging host (host relay,
// capture coordinator, collect client, notification fanout).
package daemonrun
