// Package mocks provides centralized mock implementations for testing.
//
// Instead of defining inline mocks in individual test files, these
// standardized implementations can be reused across test packages. Each
// mock exposes function fields (e.g. CreateFn) to override behavior per
// test, with simple in-memory defaults when no override is set.
package mocks
