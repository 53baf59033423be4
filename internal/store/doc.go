// Package store defines the persistence interfaces the engine depends on:
// sessions, learning records, examinees and the item pool. Keeping them as
// interfaces lets the session controller and review service stay
// independent of the database technology behind them.
package store
