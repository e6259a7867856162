// Package workspace applies local draft files to the document store.
//
// A draft is a small YAML file describing edits to one document: scalar
// field values plus image attachments or removals. Drafts let an operator
// prepare content changes in a text editor (or have a script generate them)
// and have the watch daemon pick them up and save them, instead of walking
// through the interactive forms.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eliphany/siteadmin/internal/content"
)

// ImageEdit is one image change inside a draft.
type ImageEdit struct {
	// Position is the slot index within the group.
	Position int `yaml:"position"`

	// Path is the image file to upload, relative to the draft file.
	Path string `yaml:"path,omitempty"`

	// Clear removes the slot's current image instead of uploading.
	Clear bool `yaml:"clear,omitempty"`
}

// Draft is the on-disk YAML form of a pending edit.
type Draft struct {
	// Doc is the document type, e.g. "homeSettings".
	Doc string `yaml:"doc"`

	// ID is the target document id. Optional for singletons.
	ID string `yaml:"id,omitempty"`

	// Fields holds scalar field values to write.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Images maps slot group names to image edits.
	Images map[string][]ImageEdit `yaml:"images,omitempty"`
}

// ReadDraft loads and validates a draft file.
func ReadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", path, err)
	}

	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	if d.Doc == "" {
		return nil, fmt.Errorf("draft %s has no doc type", path)
	}
	return &d, nil
}

// FormState converts the draft into an edit state for its document.
// Relative image paths are resolved against baseDir, normally the draft
// file's directory. Field names, group names, and slot positions are
// checked against the document's descriptor so a typo fails here rather
// than producing a silently wrong save.
func (d *Draft) FormState(baseDir string) (*content.FormState, error) {
	desc, err := content.DescriptorForType(d.Doc)
	if err != nil {
		return nil, err
	}

	form := content.NewFormState(desc, d.ID)
	if form.ID == "" {
		return nil, fmt.Errorf("draft for %s needs an id", d.Doc)
	}

	for name, value := range d.Fields {
		field, ok := desc.Field(name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", d.Doc, name)
		}
		converted, err := fieldValue(field, value)
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", d.Doc, name, err)
		}
		form.SetField(name, converted)
	}

	for group, edits := range d.Images {
		g, ok := desc.SlotGroup(group)
		if !ok {
			return nil, fmt.Errorf("%s has no image group %q", d.Doc, group)
		}
		for _, edit := range edits {
			if edit.Position < 0 || edit.Position >= g.Max {
				return nil, fmt.Errorf("%s/%s position %d out of range (max %d)",
					d.Doc, group, edit.Position, g.Max-1)
			}
			switch {
			case edit.Clear:
				form.ClearImage(group, edit.Position)
			case edit.Path != "":
				path := edit.Path
				if !filepath.IsAbs(path) {
					path = filepath.Join(baseDir, path)
				}
				form.AttachImage(group, edit.Position, path)
			default:
				return nil, fmt.Errorf("%s/%s position %d has neither path nor clear",
					d.Doc, group, edit.Position)
			}
		}
	}

	return form, nil
}

// fieldValue converts a YAML field value into the field's canonical
// in-memory shape. Drafts carry plain strings and sequences; the persisted
// document needs tag lists and paragraph blocks, so the conversion has to
// happen here rather than letting raw YAML values flow into the merge.
func fieldValue(field content.Field, value any) (any, error) {
	switch field.Kind {
	case content.KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return b, nil

	case content.KindTags:
		switch v := value.(type) {
		case string:
			return content.ParseTags(v), nil
		case []any:
			return stringSlice(v, func(ss []string) any { return ss })
		}
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", value)

	case content.KindParagraphs:
		switch v := value.(type) {
		case string:
			return paragraphs(strings.Split(v, "\n\n")), nil
		case []any:
			return stringSlice(v, func(ss []string) any { return paragraphs(ss) })
		}
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", value)

	default:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return s, nil
	}
}

// stringSlice narrows a YAML sequence to strings and hands it to build.
func stringSlice(items []any, build func([]string) any) (any, error) {
	ss := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a list of strings, got a %T element", item)
		}
		ss = append(ss, s)
	}
	return build(ss), nil
}

// paragraphs turns raw text chunks into trimmed, non-empty paragraph blocks.
func paragraphs(chunks []string) []content.Paragraph {
	paras := make([]content.Paragraph, 0, len(chunks))
	for _, chunk := range chunks {
		paras = append(paras, content.Paragraph{Text: strings.TrimSpace(chunk)})
	}
	return content.FilterParagraphs(paras)
}
