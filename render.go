package main

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

var htmlTag = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// TextRenderer turns article text into Markdown for the terminal. Text
// containing markup is sanitized first; plain text passes through.
type TextRenderer struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewTextRenderer creates a renderer with the UGC sanitizing policy
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Markdown renders text as Markdown
func (r *TextRenderer) Markdown(text string) (string, error) {
	if !htmlTag.MatchString(text) {
		return strings.TrimSpace(text), nil
	}

	clean := r.policy.Sanitize(text)
	markdown, err := r.converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
