// Package storage provides the key-value persistence layer for the duty
// roster. Values round-trip through JSON under a small set of stable
// keys; a missing key is a documented default, never an error.
package storage

import "context"

// Stable record keys. The key names mirror the browser-era localStorage
// layout so exported backups stay interchangeable.
const (
	KeySchedules = "dutyRoster:schedules"
	KeyEmployees = "dutyRoster:employees"
	KeySettings  = "dutyRoster:settings"
	KeyCurrent   = "dutyRoster:current"
)

// AllKeys lists every record the roster persists, in snapshot order.
func AllKeys() []string {
	return []string{KeySchedules, KeyEmployees, KeySettings, KeyCurrent}
}

// Store is the persistence collaborator. Implementations serialize
// values as JSON. Get reports (false, nil) for an absent key and only
// returns an error on storage or decode failure.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
