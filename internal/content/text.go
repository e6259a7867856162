package content

import (
	"encoding/json"
	"net/url"
	"strings"
)

// MaxIntroParagraphs is the paragraph limit for the about page intro text.
const MaxIntroParagraphs = 3

// Paragraph is one plain-text paragraph of the about page intro. The store
// represents paragraphs as rich-text blocks; the console edits only the text
// of the first span and preserves that shape on the wire.
type Paragraph struct {
	Text string
}

// MarshalJSON writes the store's block shape:
// {"_type":"block","style":"normal","children":[{"_type":"span","text":...,"marks":[]}]}.
func (p Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"_type": "block",
		"style": "normal",
		"children": []map[string]any{
			{"_type": "span", "text": p.Text, "marks": []string{}},
		},
	})
}

// ParagraphsFromRaw extracts paragraph text from decoded block data.
// Anything that is not a block with at least one span is skipped.
func ParagraphsFromRaw(v any) []Paragraph {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []Paragraph
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		children, ok := m["children"].([]any)
		if !ok || len(children) == 0 {
			continue
		}
		span, ok := children[0].(map[string]any)
		if !ok {
			continue
		}
		text, _ := span["text"].(string)
		out = append(out, Paragraph{Text: text})
	}
	return out
}

// FilterParagraphs drops blank paragraphs and truncates to the intro limit.
// Blank blocks are never persisted.
func FilterParagraphs(in []Paragraph) []Paragraph {
	var out []Paragraph
	for _, p := range in {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		out = append(out, p)
		if len(out) == MaxIntroParagraphs {
			break
		}
	}
	return out
}

// ParseTags splits operator input like "fat burner, keto, 30-day supply"
// into a clean tag list. Empty entries are dropped and duplicates removed,
// keeping first-seen order.
func ParseTags(input string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(input, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// StripHandle normalizes an Instagram handle by removing every "@".
func StripHandle(handle string) string {
	return strings.ReplaceAll(strings.TrimSpace(handle), "@", "")
}

// WaLink builds the wa.me preview URL for a button's phone number and
// pre-filled message.
func WaLink(phoneNumber, preMessage string) string {
	link := "https://wa.me/" + strings.TrimSpace(phoneNumber)
	if preMessage != "" {
		link += "?text=" + url.QueryEscape(preMessage)
	}
	return link
}
