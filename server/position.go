package server

import (
	"strings"

	"go.lsp.dev/protocol"
)

// offsetAt converts a protocol position (0-indexed line and character)
// into a byte offset within the text. Out-of-range positions clamp to
// the nearest valid offset.
func offsetAt(text string, line, character int) int {
	start := 0
	for ; line > 0; line-- {
		next := strings.IndexByte(text[start:], '\n')
		if next < 0 {
			return len(text)
		}
		start += next + 1
	}

	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		end = len(text) - start
	}
	if character > end {
		character = end
	}
	return start + character
}

// positionAt converts a byte offset into a protocol position.
func positionAt(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}

	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - lineStart),
	}
}

// rangeOf converts a byte span into a protocol range.
func rangeOf(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: positionAt(text, start),
		End:   positionAt(text, end),
	}
}
