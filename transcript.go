package ponder

import "strings"

// SegmentKind identifies one kind of transcript entry.
type SegmentKind int

const (
	SegmentQuestion SegmentKind = iota
	SegmentThought
	SegmentAction
	SegmentActionInput
	SegmentResult
	SegmentFinalAnswer
	SegmentCorrection
)

// String returns the string representation of the segment kind.
func (x SegmentKind) String() string {
	return []string{"Question", "Thought", "Action", "Action Input", "Result", "Final Answer", "Correction"}[x]
}

// Segment is one entry of a session transcript.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Transcript is the append-only record of one reasoning session. It is
// owned by the session loop for the lifetime of one question and exposed
// read-only on the Result for display and debugging.
type Transcript struct {
	segments []Segment
}

func newTranscript(question string) *Transcript {
	return &Transcript{segments: []Segment{{Kind: SegmentQuestion, Text: question}}}
}

func (x *Transcript) append(kind SegmentKind, text string) {
	x.segments = append(x.segments, Segment{Kind: kind, Text: text})
}

// Segments returns a copy of the transcript entries in order.
func (x *Transcript) Segments() []Segment {
	return append([]Segment(nil), x.segments...)
}

// Render produces the textual form of the transcript as sent to the
// model. Output is deterministic: same segments, same bytes.
func (x *Transcript) Render() string {
	var sb strings.Builder
	for _, seg := range x.segments {
		if seg.Kind == SegmentCorrection {
			// Corrective instructions are nudges from the loop, not part
			// of the Thought/Action grammar.
			sb.WriteString(seg.Text)
		} else {
			sb.WriteString(seg.Kind.String())
			sb.WriteString(": ")
			sb.WriteString(seg.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (x *Transcript) String() string {
	return x.Render()
}
