// Package postgres implements the storage interfaces from internal/store
// on PostgreSQL. It owns connection details, query execution, mapping
// between domain entities and rows, and translation of driver errors into
// the store package's sentinel errors.
package postgres
