package pg

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql seeds/*.sql
var sqlFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Seeds returns the embedded sample data.
func Seeds() fs.FS {
	sub, err := fs.Sub(sqlFiles, "seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
