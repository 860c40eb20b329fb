// Package repositories implements SQLite persistence for the optional run history.
//
// [RunRepository] writes one row per run plus one row per redemption outcome, and reads them
// back for the history command. OAuth tokens are never stored.
package repositories
