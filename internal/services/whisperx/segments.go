package whisperx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dubber/internal/services"
	"dubber/internal/textutil"
)

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one timed span of source speech. Index is the 1-based position
// in the loaded file after empty segments are dropped.
type Segment struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments reads a WhisperX JSON file (or a hand-made file of the same
// shape) and returns its segments.
func LoadSegments(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, stageName, "load segments", fmt.Sprintf("read %s", path), err)
	}
	return ParseSegments(data)
}

// ParseSegments decodes a segments document. Whitespace in text is collapsed, segments with
// empty text are dropped, and indices are assigned 1..N in document order.
// A bare JSON array of segments is accepted as well as {"segments": [...]}.
func ParseSegments(data []byte) ([]Segment, error) {
	var doc payload
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &doc.Segments); err != nil {
			return nil, services.Wrap(services.ErrDecode, stageName, "parse segments", "invalid segment list", err)
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrDecode, stageName, "parse segments", "invalid whisperx json", err)
	}

	out := make([]Segment, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		seg.Text = textutil.NormalizeSpeech(seg.Text)
		if seg.Text == "" {
			continue
		}
		seg.Index = len(out) + 1
		out = append(out, seg)
	}
	return out, nil
}
