// Package filing turns a raw SEC filing into normalized text and labeled
// section spans ("business", "risk_factors", "mda") with stable offsets.
package filing

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Normalize collapses every whitespace run into a single ASCII space and
// trims both ends. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// noiseSelector matches markup whose text never belongs in the narrative.
// ix:header holds the hidden inline-XBRL context block of modern filings.
const noiseSelector = "script, style, noscript, template, head, ix\\:header, [hidden], [style*='display:none'], [style*='display: none']"

// ToText strips markup and returns normalized plain text. Text nodes are
// joined with single spaces. If stripping yields nothing the raw body is
// normalized instead.
func ToText(raw string) string {
	text := stripMarkup(raw)
	if strings.TrimSpace(text) == "" {
		text = raw
	}
	return Normalize(text)
}

func stripMarkup(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	doc.Find(noiseSelector).Remove()

	var sb strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &sb)
	}
	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t)
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// ToMarkdown renders a filing as readable markdown. It is meant for people;
// section offsets are always computed on ToText output.
func ToMarkdown(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse filing html: %w", err)
	}
	doc.Find(noiseSelector).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize cleaned html: %w", err)
	}

	conv := htmltomarkdown.NewConverter(
		htmltomarkdown.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("convert filing to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
