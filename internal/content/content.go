// Package content defines the document model for the marketing site:
// the singleton settings documents, the WhatsApp call-to-action buttons,
// and the product collection, together with the local edit state that the
// console holds while an operator works on a screen.
//
// Every document category is described by a Descriptor: the fixed document
// identifier, the scalar fields the console manages, and the image slot
// groups. The save pipeline (upload, merge, upsert) is driven entirely by
// descriptors so that each settings screen shares one merge path instead of
// reimplementing it with per-screen variations.
package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Document type names as stored in the remote document store.
const (
	TypeHomeSettings   = "homeSettings"
	TypeAboutSettings  = "aboutSettings"
	TypeWhatsappButton = "whatsappButton"
	TypeProduct        = "product"
)

// Fixed identifiers for the singleton settings documents. Singletons are
// written with these well-known ids on every save, which makes the
// create-or-replace write idempotent at the identifier level.
const (
	IDHomeSettings  = "homeSettings"
	IDAboutSettings = "aboutSettings"
)

// MaxImageBytes is the client-side limit for a single image upload.
// Enforced before any network call is made.
const MaxImageBytes = 2 * 1024 * 1024

// FieldKind tells the console how to decode and present a scalar field.
type FieldKind int

const (
	// KindString is a plain text value (the default).
	KindString FieldKind = iota

	// KindBool is a toggle.
	KindBool

	// KindTags is a set of strings edited as comma-separated input.
	KindTags

	// KindParagraphs is an ordered sequence of paragraph blocks.
	KindParagraphs

	// KindHandle is a social media handle; any "@" is stripped on save.
	KindHandle
)

// Field describes one scalar field of a document category.
//
// Scalar here means "not an image slot": strings, booleans, tag lists and
// paragraph sequences all count. On save the local value always wins and is
// written verbatim, so Field carries only input-shaping rules, never merge
// rules.
type Field struct {
	// Name is the wire field name, e.g. "heroHeadline".
	Name string

	// Kind selects the value shape (plain string when zero).
	Kind FieldKind

	// MaxLen limits the rune length of string values (0 = unlimited).
	MaxLen int

	// Required rejects empty string values at validation time.
	Required bool

	// Trim strips surrounding whitespace before validation and save.
	Trim bool
}

// SlotGroup describes a named image attachment area of a document.
//
// A single-image field (hero background, founder portrait) is a group with
// Max 1; a gallery (instagram images) is a group with Max > 1. Groups with a
// KeyPrefix assign stable keys to their slots; single-image groups carry no
// stable key, matching how the store represents standalone image fields.
type SlotGroup struct {
	// Name is the wire field name, e.g. "instagramImages".
	Name string

	// Max is the number of positions in the group.
	Max int

	// KeyPrefix, when non-empty, is used to synthesize stable keys for
	// slots that never had one: "<prefix>-<position>".
	KeyPrefix string
}

// Descriptor describes one document category end to end: its wire type, its
// identifier discipline, and the fields and slot groups the console edits.
type Descriptor struct {
	// Type is the document type in the remote store.
	Type string

	// Singleton documents have a fixed well-known id; collections generate
	// ids per entity.
	Singleton bool

	// ID is the fixed identifier for singletons ("" for collections).
	ID string

	// Fields are the scalar fields, in display order.
	Fields []Field

	// Slots are the image slot groups, in display order.
	Slots []SlotGroup
}

// Home describes the home page settings singleton.
var Home = Descriptor{
	Type:      TypeHomeSettings,
	Singleton: true,
	ID:        IDHomeSettings,
	Fields: []Field{
		{Name: "heroHeadline", MaxLen: 60},
		{Name: "heroSubline", MaxLen: 120},
		{Name: "instagramHandle", Kind: KindHandle},
		{Name: "instagramUrl"},
	},
	Slots: []SlotGroup{
		{Name: "heroBackgroundImage", Max: 1},
		{Name: "instagramImages", Max: 4, KeyPrefix: "ig"},
	},
}

// About describes the about page settings singleton.
var About = Descriptor{
	Type:      TypeAboutSettings,
	Singleton: true,
	ID:        IDAboutSettings,
	Fields: []Field{
		{Name: "pageTitle", MaxLen: 60},
		{Name: "heroTitle", MaxLen: 90},
		{Name: "introText", Kind: KindParagraphs},
		{Name: "whatsappButtonText"},
	},
	Slots: []SlotGroup{
		{Name: "founderImage", Max: 1},
	},
}

// Button describes the WhatsApp call-to-action button documents. Six fixed
// instances exist (see Buttons); they share one descriptor with no slots.
var Button = Descriptor{
	Type:      TypeWhatsappButton,
	Singleton: true, // fixed ids, one document each
	Fields: []Field{
		{Name: "text"},
		{Name: "phoneNumber", Required: true, Trim: true},
		{Name: "preMessage"},
		{Name: "isActive", Kind: KindBool},
	},
}

// Product describes the product collection entity.
var Product = Descriptor{
	Type: TypeProduct,
	Fields: []Field{
		{Name: "name", Required: true, Trim: true},
		{Name: "shortDescription", Required: true, Trim: true},
		{Name: "description", Required: true, Trim: true},
		{Name: "category", Required: true, Trim: true},
		{Name: "tags", Kind: KindTags},
	},
	Slots: []SlotGroup{
		{Name: "mainImage", Max: 1},
	},
}

// Descriptors lists every document category the console manages.
var Descriptors = []Descriptor{Home, About, Button, Product}

// DescriptorForType returns the descriptor for a document type.
func DescriptorForType(docType string) (Descriptor, error) {
	for _, d := range Descriptors {
		if d.Type == docType {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("unknown document type: %s", docType)
}

// Field returns the named field description, if the descriptor has it.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SlotGroup returns the named slot group, if the descriptor has it.
func (d Descriptor) SlotGroup(name string) (SlotGroup, bool) {
	for _, g := range d.Slots {
		if g.Name == name {
			return g, true
		}
	}
	return SlotGroup{}, false
}

// Normalize cleans scalar field values in place: Trim fields lose
// surrounding whitespace and handle fields lose their "@". Runs once per
// save attempt, before validation, so the persisted document never carries
// raw operator input quirks.
func (d Descriptor) Normalize(fields map[string]any) {
	for _, f := range d.Fields {
		v, ok := fields[f.Name]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			continue
		}
		if f.Kind == KindHandle {
			s = StripHandle(s)
		} else if f.Trim {
			s = strings.TrimSpace(s)
		}
		fields[f.Name] = s
	}
}

// Validate checks scalar field values against the descriptor rules.
// Image slots are not validated here; a slot with neither an asset nor a
// pending upload is simply omitted from the persisted document.
func (d Descriptor) Validate(fields map[string]any) error {
	for _, f := range d.Fields {
		v, ok := fields[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("%s is required", f.Name)
			}
			continue
		}

		s, isString := v.(string)
		if !isString {
			continue
		}
		if f.Trim {
			s = strings.TrimSpace(s)
		}
		if f.Required && s == "" {
			return fmt.Errorf("%s is required", f.Name)
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
			return fmt.Errorf("%s must be %d characters or less (got %d)",
				f.Name, f.MaxLen, utf8.RuneCountInString(s))
		}
	}
	return nil
}
