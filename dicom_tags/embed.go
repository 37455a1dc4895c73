// Package dicomtags ships the default tag keyword lists so the binary works
// without a checkout. Each file is a single-column CSV with a "Keyword"
// header; paths in the configuration override these defaults.
package dicomtags

import "embed"

//go:embed minimal_tags.csv additional_tags.csv tags_to_modify.csv
var FS embed.FS

// Default file names within FS.
const (
	MinimalFile    = "minimal_tags.csv"
	AdditionalFile = "additional_tags.csv"
	TransformFile  = "tags_to_modify.csv"
)
