package markdown

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit replaces source[Start:End] with Replacement. Offsets are byte
// positions in the original source, End exclusive. An insertion has
// Start == End.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping byte-range edits to source. All
// offsets refer to the original source, so a caller can compute every
// edit up front without tracking position shifts.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < e.Start:
			return nil, fmt.Errorf("invalid edit [%d:%d]", e.Start, e.End)
		case e.End > len(source):
			return nil, fmt.Errorf("edit [%d:%d] past end of source (%d bytes)", e.Start, e.End, len(source))
		case i > 0 && e.Start < sorted[i-1].End:
			return nil, fmt.Errorf("edit [%d:%d] overlaps [%d:%d]", e.Start, e.End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	var out bytes.Buffer
	pos := 0
	for _, e := range sorted {
		out.Write(source[pos:e.Start])
		out.Write(e.Replacement)
		pos = e.End
	}
	out.Write(source[pos:])
	return out.Bytes(), nil
}
