// Package library persists collected images and their prompt analysis in
// SQLite.
//
// The Store owns the database connection, applies the embedded migrations in
// order, and removes image files from the upload directory when their record
// is deleted. Tags are stored as a JSON array; rows whose tags column cannot
// be decoded read back with no tags rather than failing the query.
//
// Categories are a fixed set. Anything the analysis returns outside that set
// is filed under Other.
package library
