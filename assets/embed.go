// assets/embed.go
//
// Embedded data files shipped inside the binary:
//   - levels.yaml: the default level catalog.
//   - sql/*.sql:   schema migrations applied at startup.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed levels.yaml sql/*.sql
var FS embed.FS

// LevelsYAML returns the embedded default level catalog.
func LevelsYAML() ([]byte, error) {
	return FS.ReadFile("levels.yaml")
}

// Migrations returns the embedded migration files rooted at sql/.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
