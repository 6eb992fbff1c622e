package migrations

import "embed"

// FS embeds the SQL migration files so the server binary can bring up its
// own schema without external files
//
//go:embed *.sql
var FS embed.FS
