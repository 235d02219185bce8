package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	stdhtml "html"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ideafarm-labs/ideafarm-engine/pkg/models"
)

const timedTextEndpoint = "https://video.google.com/timedtext"

// parseYouTubeVideoID reports whether rawURL points at a YouTube video and
// returns its video id. Recognized forms:
//
//	https://www.youtube.com/watch?v=ID
//	https://youtube.com/shorts/ID
//	https://youtu.be/ID
func parseYouTubeVideoID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, true
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			if id, _, _ := strings.Cut(rest, "/"); id != "" {
				return id, true
			}
		}
		if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			if id, _, _ := strings.Cut(rest, "/"); id != "" {
				return id, true
			}
		}
		return "", false
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id != "" && !strings.Contains(id, "/") {
			return id, true
		}
		return "", false
	}
	return "", false
}

type timedText struct {
	Lines []struct {
		Content string `xml:",chardata"`
	} `xml:"text"`
}

func (e *extractor) extractTranscript(ctx context.Context, videoID string) models.ExtractionResult {
	failed := func(detail string) models.ExtractionResult {
		e.logger.Warn("Transcript extraction failed",
			zap.String("video_id", videoID),
			zap.String("detail", detail))
		return models.ExtractionResult{
			Provenance:       models.ProvenanceVideoTranscript,
			ExtractionFailed: true,
			FailureDetail:    detail,
		}
	}

	captionsURL := fmt.Sprintf("%s?lang=en&v=%s", timedTextEndpoint, url.QueryEscape(videoID))
	body, status, err := e.fetch(ctx, captionsURL)
	if err != nil {
		return failed(fmt.Sprintf("transcript fetch failed: %v", err))
	}
	if status < 200 || status >= 300 {
		return failed(fmt.Sprintf("transcript fetch returned HTTP %d", status))
	}

	text, err := parseTimedText(body)
	if err != nil {
		return failed(fmt.Sprintf("transcript parse failed: %v", err))
	}
	if text == "" {
		return failed("no captions available for video")
	}

	e.logger.Debug("Transcript extracted",
		zap.String("video_id", videoID),
		zap.Int("chars", len(text)))

	return models.ExtractionResult{
		Text:       truncate(text, e.config.MaxContentChars),
		Provenance: models.ProvenanceVideoTranscript,
	}
}

// parseTimedText converts a timedtext XML caption document to plain text.
// Caption payloads are HTML-escaped inside the XML, so entities are unescaped
// a second time after decoding.
func parseTimedText(doc []byte) (string, error) {
	var parsed timedText
	if err := xml.Unmarshal(doc, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal timedtext: %w", err)
	}

	parts := make([]string, 0, len(parsed.Lines))
	for _, line := range parsed.Lines {
		content := strings.TrimSpace(stdhtml.UnescapeString(line.Content))
		if content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, " "), nil
}
