package clip

import (
	"path/filepath"
	"strings"
)

// Trailers builds the commit message trailer block recording a clip's
// provenance on the commit that imports it. Fields missing from the
// metadata are omitted; a nil meta yields only the bundle, ref, and head
// lines that are known from the paste itself.
func Trailers(bundlePath string, meta *Meta, refUsed, headSHA string) string {
	var lines []string
	lines = append(lines, "Clip-Bundle: "+filepath.Base(bundlePath))

	if meta != nil {
		if meta.SourceRepo != "" {
			lines = append(lines, "Clip-Source: "+meta.SourceRepo)
		}
		if len(meta.Paths) > 0 {
			lines = append(lines, "Clip-Paths: "+strings.Join(meta.Paths, ", "))
		}
		if meta.ToSubdir != "" {
			lines = append(lines, "Clip-Subdir: "+meta.ToSubdir)
		}
		if meta.CreatedAt != "" {
			lines = append(lines, "Clip-Created-At: "+meta.CreatedAt)
		}
	}
	if refUsed != "" {
		lines = append(lines, "Clip-Ref: "+refUsed)
	}
	if headSHA != "" {
		lines = append(lines, "Clip-Head: "+headSHA)
	}
	return strings.Join(lines, "\n")
}
