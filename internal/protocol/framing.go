package protocol

import "bytes"

// findJSONEnd scans for the end of a JSON object starting at buf[0].
// It tracks brace depth, string state, and escapes, so braces inside
// string values do not confuse it. Returns the index one past the
// closing brace, or -1 if the buffer does not yet hold a complete
// object (or does not start with one).
func findJSONEnd(buf []byte) int {
	if len(buf) == 0 || buf[0] != '{' {
		return -1
	}
	depth := 0
	inString := false
	escaped := false
	for i, b := range buf {
		if escaped {
			escaped = false
			continue
		}
		switch b {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}

// nextFrame extracts the next complete JSON object from buf. Leading
// whitespace and newlines are skipped; garbage before the next brace
// is discarded through the following newline so a single bad line
// cannot wedge the stream. Returns the frame, the remaining buffer,
// and whether a frame was found.
func nextFrame(buf []byte) (frame, rest []byte, ok bool) {
	for {
		// Skip leading whitespace
		start := 0
		for start < len(buf) && isSpace(buf[start]) {
			start++
		}
		buf = buf[start:]
		if len(buf) == 0 {
			return nil, buf, false
		}

		if buf[0] != '{' {
			// Not addressable: drop through the next newline and retry
			nl := bytes.IndexByte(buf, '\n')
			if nl < 0 {
				// Wait for the rest of the bad line
				return nil, buf, false
			}
			buf = buf[nl+1:]
			continue
		}

		end := findJSONEnd(buf)
		if end < 0 {
			// Incomplete: wait for more bytes
			return nil, buf, false
		}
		return buf[:end], buf[end:], true
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
