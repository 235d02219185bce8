package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Containers whose text is boilerplate rather than article content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
	"svg":      true,
}

// Elements that end a block of text.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "pre": true, "br": true,
	"tr": true, "td": true, "th": true,
}

// articleText extracts readable text from an HTML document. It walks the
// token stream, skipping boilerplate containers and joining text into
// newline-separated blocks.
func articleText(doc []byte) string {
	tokenizer := html.NewTokenizer(strings.NewReader(string(doc)))

	var out strings.Builder
	var block strings.Builder
	skipDepth := 0

	flush := func() {
		text := strings.TrimSpace(block.String())
		block.Reset()
		if text == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(text)
	}

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			flush()
			return collapseWhitespace(out.String())

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] {
				skipDepth++
			}
			if blockElements[tag] {
				flush()
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedElements[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockElements[tag] {
				flush()
			}

		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if blockElements[string(name)] {
				flush()
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(tokenizer.Text())
			if strings.TrimSpace(text) == "" {
				continue
			}
			if block.Len() > 0 {
				block.WriteByte(' ')
			}
			block.WriteString(strings.TrimSpace(text))
		}
	}
}

// collapseWhitespace normalizes runs of spaces and blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
