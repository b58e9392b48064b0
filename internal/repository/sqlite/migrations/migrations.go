// Package migrations embeds the sqlite schema so it ships inside the binary.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
