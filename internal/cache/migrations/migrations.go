// Package migrations embeds the goose SQL migrations for the local cache
// database. A schema version bump here invalidates existing caches: the
// store recreates both tables on the next initialization.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
