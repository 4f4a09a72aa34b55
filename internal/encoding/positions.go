package encoding

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/standardbeagle/plsc/internal/types"
)

// LineStarts returns the byte offset of the first byte of each line in
// text, including an implicit line 0 starting at offset 0.
func LineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// PositionToOffset converts an LSP Position (line, UTF-16 code units)
// into a byte offset into text, using lineStarts to locate the line and
// decoding UTF-16 code units across the line's UTF-8 bytes. A position
// past the end of the document clamps to len(text).
func PositionToOffset(text string, lineStarts []int, pos types.Position) int {
	line := int(pos.Line)
	if line < 0 {
		return 0
	}
	if line >= len(lineStarts) {
		return len(text)
	}
	lineStart := lineStarts[line]
	lineEnd := len(text)
	if line+1 < len(lineStarts) {
		lineEnd = lineStarts[line+1]
	}
	// A character count past the end of the line clamps to the line's
	// content, not onto its terminating newline.
	if lineEnd > lineStart && text[lineEnd-1] == '\n' {
		lineEnd--
	}

	units := uint32(0)
	i := lineStart
	for i < lineEnd && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		if utf16.RuneLen(r) == 2 {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return i
}

// OffsetToPosition converts a byte offset into text into an LSP Position
// (line, UTF-16 code units), using lineStarts to find the enclosing
// line. An offset that falls inside a multi-byte UTF-8 sequence snaps
// back to that code point's start, satisfying the round-trip property
// for valid code-point-boundary offsets.
func OffsetToPosition(text string, lineStarts []int, offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	line := lineForOffset(lineStarts, offset)
	lineStart := lineStarts[line]

	units := uint32(0)
	i := lineStart
	for i < offset {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			// offset lands inside this code point; snap to its start.
			break
		}
		if utf16.RuneLen(r) == 2 {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return types.Position{Line: uint32(line), Character: units}
}

// lineForOffset returns the index of the last lineStarts entry that is
// <= offset, i.e. the line containing offset.
func lineForOffset(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
