package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ComputeDocsHash computes a deterministic hash over the relative paths and
// contents of a set of files. Watch mode compares hashes to skip passes
// when an event did not change any source.
func ComputeDocsHash(docFiles []DocFile) (string, error) {
	if len(docFiles) == 0 {
		h := sha256.Sum256([]byte("empty-docs-set"))
		return hex.EncodeToString(h[:]), nil
	}

	type entry struct{ path, contentHash string }
	entries := make([]entry, 0, len(docFiles))
	for _, df := range docFiles {
		if df.Content == nil {
			if err := df.LoadContent(); err != nil {
				return "", err
			}
		}
		sum := sha256.Sum256(df.Content)
		entries = append(entries, entry{df.RelativePath, hex.EncodeToString(sum[:])})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s\n", e.path, e.contentHash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
