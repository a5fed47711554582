// Package web provides the embedded HTML pages.
package web

import "embed"

//go:embed pages/*.html
var pagesFS embed.FS

// Page returns the contents of a single embedded page.
func Page(name string) ([]byte, error) {
	return pagesFS.ReadFile("pages/" + name)
}
