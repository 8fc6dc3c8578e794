// Package server exposes the BananaDB collection API over HTTP.
//
// The browser extension posts captured image URLs to /api/collect_url; the
// server downloads the image, asks the vision model to reverse-engineer a
// prompt (or translates the prompt the user typed), and records the result
// in the library. The remaining routes back the embedded gallery page:
// listing, semantic search, categories, favourites, and deletion.
//
// Routing uses chi. Requests from browser extensions and localhost pages
// are allowed through CORS with the origin echoed back; when an API token
// is configured every /api route requires it as a bearer token.
package server
