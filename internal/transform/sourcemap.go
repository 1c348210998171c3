// # internal/transform/sourcemap.go
package transform

import (
	"strings"
)

// SourceMap is a standard v3 map with line-granular mappings: each
// generated line points at the original line it was derived from. That is
// enough for the surrounding test tool to report failures against the
// un-rewritten file.
type SourceMap struct {
	Version  int      `json:"version"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

const vlqChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func encodeVLQ(value int) string {
	vlq := value << 1
	if value < 0 {
		vlq = (-value << 1) | 1
	}
	var b strings.Builder
	for {
		digit := vlq & 0x1f
		vlq >>= 5
		if vlq > 0 {
			digit |= 0x20
		}
		b.WriteByte(vlqChars[digit])
		if vlq == 0 {
			return b.String()
		}
	}
}

// BuildSourceMap derives the v3 mappings from the edit-buffer segments.
func BuildSourceMap(moduleID, original, generated string, segs []Segment) *SourceMap {
	inLines := lineOffsets(original)

	var mappings strings.Builder
	prevSrcLine := 0
	for i, lineStart := range lineOffsets(generated) {
		if i > 0 {
			mappings.WriteByte(';')
		}
		inOffset, ok := mapOffset(uint(lineStart), segs)
		if !ok {
			continue
		}
		srcLine := lineOf(inOffset, inLines)
		// Segment: [genCol, sourceIdx, srcLine, srcCol]; all but srcLine
		// stay zero so only its delta is encoded.
		mappings.WriteString(encodeVLQ(0))
		mappings.WriteString(encodeVLQ(0))
		mappings.WriteString(encodeVLQ(srcLine - prevSrcLine))
		mappings.WriteString(encodeVLQ(0))
		prevSrcLine = srcLine
	}

	return &SourceMap{
		Version:  3,
		Sources:  []string{moduleID},
		Names:    []string{},
		Mappings: mappings.String(),
	}
}

// mapOffset finds the input offset an output offset corresponds to via the
// segment table.
func mapOffset(out uint, segs []Segment) (uint, bool) {
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg.OutStart > out {
			continue
		}
		if seg.Copy {
			return seg.InStart + (out - seg.OutStart), true
		}
		return seg.InStart, true
	}
	return 0, len(segs) > 0
}

// lineOffsets returns the byte offset of the start of every line.
func lineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineOf returns the zero-based line containing an offset.
func lineOf(offset uint, offsets []int) int {
	line := 0
	for i, start := range offsets {
		if uint(start) > offset {
			break
		}
		line = i
	}
	return line
}
