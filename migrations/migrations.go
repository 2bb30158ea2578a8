// Package migrations embeds the SQL schema so both binaries can migrate on
// startup without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
