package extract

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

func TestParseYouTubeVideoID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch url no www", "https://youtube.com/watch?v=abc123", "abc123", true},
		{"mobile host", "https://m.youtube.com/watch?v=abc123", "abc123", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts path", "https://www.youtube.com/shorts/xyz789", "xyz789", true},
		{"embed path", "https://www.youtube.com/embed/xyz789", "xyz789", true},
		{"watch with extra params", "https://www.youtube.com/watch?t=42&v=abc123", "abc123", true},
		{"channel page", "https://www.youtube.com/@somechannel", "", false},
		{"plain article", "https://example.com/watch?v=abc123", "", false},
		{"bare youtu.be", "https://youtu.be/", "", false},
		{"not a url", "://bad", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseYouTubeVideoID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestExtractTranscript(t *testing.T) {
	const captions = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">we&amp;#39;re going to talk</text>
  <text start="2.5" dur="3.1">about write-ahead logs</text>
</transcript>`

	client := &mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return htmlResponse(200, captions), nil
		},
	}
	e := newTestExtractor(client)

	result := e.Extract(context.Background(), models.InputTypeURL, "https://youtu.be/abc123")

	if result.ExtractionFailed {
		t.Fatalf("unexpected failure: %s", result.FailureDetail)
	}
	if result.Provenance != models.ProvenanceVideoTranscript {
		t.Errorf("provenance = %s", result.Provenance)
	}
	if result.Text != "we're going to talk about write-ahead logs" {
		t.Errorf("text = %q", result.Text)
	}

	req := client.Requests[0]
	if !strings.Contains(req.URL.String(), "v=abc123") {
		t.Errorf("transcript request url = %s", req.URL)
	}
}

func TestExtractTranscriptNoCaptions(t *testing.T) {
	client := &mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return htmlResponse(200, ""), nil
		},
	}
	e := newTestExtractor(client)

	result := e.Extract(context.Background(), models.InputTypeURL, "https://youtu.be/abc123")

	if !result.ExtractionFailed {
		t.Fatal("expected extraction failure for caption-less video")
	}
	if result.Provenance != models.ProvenanceVideoTranscript {
		t.Errorf("provenance = %s", result.Provenance)
	}
}
