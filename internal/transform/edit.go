// # internal/transform/edit.go
package transform

import (
	"sort"
	"strings"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
)

// Edit is one splice against the original text. Start == End is a pure
// insertion.
type Edit struct {
	Start uint
	End   uint
	Text  string
}

// Segment relates a run of output text back to the input offset it came
// from. Copy segments extrapolate linearly; replacement segments pin every
// contained output position to InStart.
type Segment struct {
	OutStart uint
	InStart  uint
	Copy     bool
}

// EditBuffer is an append/overwrite log over the original source. Edits
// may arrive out of order; Apply linearizes once. Overlapping overwrite
// ranges are a programming error in the rewriter, not user input, so they
// surface as an internal error instead of corrupt output.
type EditBuffer struct {
	source []byte
	edits  []Edit
}

func NewEditBuffer(source []byte) *EditBuffer {
	return &EditBuffer{source: source}
}

func (b *EditBuffer) Replace(start, end uint, text string) {
	b.edits = append(b.edits, Edit{Start: start, End: end, Text: text})
}

func (b *EditBuffer) Insert(pos uint, text string) {
	b.edits = append(b.edits, Edit{Start: pos, End: pos, Text: text})
}

func (b *EditBuffer) Append(text string) {
	b.Insert(uint(len(b.source)), text)
}

func (b *EditBuffer) Len() int {
	return len(b.edits)
}

// Apply produces the new text plus the segment table the source-map
// builder consumes.
func (b *EditBuffer) Apply() (string, []Segment, error) {
	edits := make([]Edit, len(b.edits))
	copy(edits, b.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start != edits[j].Start {
			return edits[i].Start < edits[j].Start
		}
		return edits[i].End < edits[j].End
	})

	size := uint(len(b.source))
	for i, e := range edits {
		if e.Start > e.End || e.End > size {
			return "", nil, coreerrors.Newf(coreerrors.CodeInternal,
				"edit range [%d,%d) out of bounds (len %d)", e.Start, e.End, size)
		}
		if i > 0 && edits[i-1].End > e.Start {
			return "", nil, coreerrors.Newf(coreerrors.CodeInternal,
				"overlapping edits: [%d,%d) and [%d,%d)",
				edits[i-1].Start, edits[i-1].End, e.Start, e.End)
		}
	}

	var out strings.Builder
	var segs []Segment
	cursor := uint(0)
	for _, e := range edits {
		if e.Start > cursor {
			segs = append(segs, Segment{OutStart: uint(out.Len()), InStart: cursor, Copy: true})
			out.Write(b.source[cursor:e.Start])
		}
		if e.Text != "" {
			segs = append(segs, Segment{OutStart: uint(out.Len()), InStart: e.Start})
			out.WriteString(e.Text)
		}
		cursor = e.End
	}
	if cursor < size {
		segs = append(segs, Segment{OutStart: uint(out.Len()), InStart: cursor, Copy: true})
		out.Write(b.source[cursor:])
	}

	return out.String(), segs, nil
}
