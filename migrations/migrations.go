// Package migrations embeds the PostgreSQL schema migrations.
//
// Files are applied in lexical order. A file NNNNNN_name.sql may have a
// companion NNNNNN_name_rollback.sql that reverts it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
