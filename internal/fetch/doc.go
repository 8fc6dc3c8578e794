// Package fetch downloads remote images into the upload directory.
//
// Requests look like a browser visiting the source page so hosts that check
// the Referer or User-Agent still serve the file. Downloads are size capped
// and stored under a random uuid name that keeps a recognised extension.
package fetch
