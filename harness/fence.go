package harness

import (
	"strings"
)

// Markers delimiting the result block in workload output.
const (
	StartMarker = "<result>"
	EndMarker   = "</result>"
)

// fenceState is the position of the scanner relative to the result block.
type fenceState int

const (
	// outsideResult: waiting for StartMarker. Lines are discarded.
	outsideResult fenceState = iota
	// insideResult: collecting payload lines until EndMarker.
	insideResult
	// resultClosed: EndMarker seen, no further input is consumed.
	resultClosed
)

func (s fenceState) String() string {
	switch s {
	case outsideResult:
		return "outside"
	case insideResult:
		return "inside"
	case resultClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// fenceScanner extracts the payload between StartMarker and EndMarker
// from a line stream.
//
// Transitions:
//
//	outside --StartMarker--> inside
//	inside  --EndMarker----> closed
//	inside  --other line---> inside (line appended to payload)
//
// Any other line leaves the state unchanged. A repeated StartMarker while
// inside is dropped, and EndMarker while outside is plain noise.
type fenceScanner struct {
	state   fenceState
	payload strings.Builder
}

// Feed consumes one line, including its terminator if any, and reports
// whether the result block has been closed.
func (f *fenceScanner) Feed(line string) bool {
	marker := strings.TrimRight(line, "\r\n")

	switch f.state {
	case outsideResult:
		if marker == StartMarker {
			f.state = insideResult
		}
	case insideResult:
		switch marker {
		case EndMarker:
			f.state = resultClosed
		case StartMarker:
		default:
			f.payload.WriteString(line)
		}
	case resultClosed:
	}

	return f.state == resultClosed
}

// Opened reports whether StartMarker has been seen.
func (f *fenceScanner) Opened() bool {
	return f.state != outsideResult
}

// Closed reports whether the result block is complete.
func (f *fenceScanner) Closed() bool {
	return f.state == resultClosed
}

// Payload returns the lines collected so far.
func (f *fenceScanner) Payload() string {
	return f.payload.String()
}
