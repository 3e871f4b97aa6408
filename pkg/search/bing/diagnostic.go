package bing

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

const maxDiagnosticLength = 300

// describeBody returns a short, readable excerpt of a response body for
// diagnostic messages. HTML error pages are reduced to their title and text.
func describeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if !looksLikeHTML(trimmed) {
		return excerpt(string(trimmed))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return excerpt(string(trimmed))
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	html, err := doc.Find("body").Html()
	if err != nil {
		return excerpt(title)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	text, err := conv.ConvertString(html)
	if err != nil {
		text = doc.Find("body").Text()
	}

	text = strings.Join(strings.Fields(text), " ")

	switch {
	case title == "":
		return excerpt(text)
	case text == "":
		return excerpt(title)
	default:
		return excerpt(title + ": " + text)
	}
}

func looksLikeHTML(body []byte) bool {
	prefix := bytes.ToLower(body[:min(len(body), 512)])
	return bytes.Contains(prefix, []byte("<html")) || bytes.Contains(prefix, []byte("<!doctype html"))
}

func excerpt(s string) string {
	if len(s) <= maxDiagnosticLength {
		return s
	}

	n := maxDiagnosticLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n] + "..."
}
