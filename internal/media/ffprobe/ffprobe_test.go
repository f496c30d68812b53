package ffprobe

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"testing"

	"dubber/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "10.000000"},
			{CodecType: "audio", Duration: "9.5"},
			{CodecType: "audio", Duration: "8"},
		},
		Format: Format{
			Duration:   "10.02",
			Size:       "1000",
			FormatName: "mov,mp4",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 10.02 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if got := result.StreamDurationSeconds("audio"); got != 9.5 {
		t.Fatalf("unexpected audio duration: %v", got)
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestStreamDurationFallsBackToContainer(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio"}},
		Format:  Format{Duration: "4.5"},
	}
	if got := result.StreamDurationSeconds("audio"); got != 4.5 {
		t.Fatalf("expected container fallback 4.5, got %v", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestParse(t *testing.T) {
	doc := `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"16000","channels":1}],"format":{"duration":"2.0","format_name":"matroska,webm"}}`
	result, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.Streams[1].Channels != 1 || result.Streams[1].SampleRate != "16000" {
		t.Fatalf("unexpected audio stream %+v", result.Streams[1])
	}
	if _, err := Parse([]byte("not json")); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestInspectMissingFile(t *testing.T) {
	binary, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not available")
	}
	if _, err := Inspect(context.Background(), binary, "/nonexistent/input.mp4"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
