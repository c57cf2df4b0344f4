package markdown

import (
	"sort"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Edit is a byte-range replacement: source[Start:End] becomes Replacement.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping edits, all expressed as offsets into the
// original source, and returns a new slice. source is left untouched.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return append([]byte(nil), source...), nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	prevEnd := 0
	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < e.Start || e.End > len(source):
			return nil, errors.ValidationError("invalid edit range").
				WithContext("index", i).
				WithContext("start", e.Start).
				WithContext("end", e.End).
				Build()
		case e.Start < prevEnd:
			return nil, errors.ValidationError("overlapping edits").
				WithContext("index", i).
				Build()
		}
		prevEnd = e.End
	}

	out := make([]byte, 0, len(source))
	cursor := 0
	for _, e := range sorted {
		out = append(out, source[cursor:e.Start]...)
		out = append(out, e.Replacement...)
		cursor = e.End
	}
	return append(out, source[cursor:]...), nil
}
