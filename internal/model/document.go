package model

import (
	"fmt"
	"strings"
	"time"
)

// Document is one corpus entry the agents reason over: a paper abstract or
// landing-page excerpt. The core treats the text as opaque.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors,omitempty"`
	Abstract  string    `json:"abstract,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	FullText  string    `json:"full_text,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// fullTextExcerptLimit bounds how much full text enters a prompt.
const fullTextExcerptLimit = 5000

// Excerpt renders the document as a prompt-ready content block.
func (d Document) Excerpt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", d.Title)
	if len(d.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n\n", strings.Join(d.Authors, ", "))
	}
	if d.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n\n", d.Abstract)
	}
	if d.FullText != "" {
		text := d.FullText
		if len(text) > fullTextExcerptLimit {
			// Count runes, not bytes, so a multibyte character is never
			// split at the boundary.
			if runes := []rune(text); len(runes) > fullTextExcerptLimit {
				text = string(runes[:fullTextExcerptLimit])
			}
		}
		fmt.Fprintf(&b, "Full Text (excerpt): %s\n\n", text)
	}
	return b.String()
}
