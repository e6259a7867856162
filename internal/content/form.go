package content

import (
	"fmt"
	"os"
	"sort"
)

// PendingUpload is a locally selected image that has not been uploaded yet.
// It exists only inside the local edit state and never crosses into a
// persisted document directly; the upload step must turn it into an AssetRef
// first.
type PendingUpload struct {
	// Path is the local file to upload.
	Path string

	// Filename is the name reported to the asset store (defaults to the
	// base name of Path when empty).
	Filename string
}

// Read loads the pending image bytes and enforces the size limit.
func (p PendingUpload) Read() ([]byte, error) {
	info, err := os.Stat(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image %s: %w", p.Path, err)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("image %s is %d bytes, limit is %d", p.Path, info.Size(), int64(MaxImageBytes))
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", p.Path, err)
	}
	return data, nil
}

// SlotEdit is the operator's in-progress change to one image slot.
// The zero value means "untouched": the remote image, if any, is carried
// forward on save.
type SlotEdit struct {
	// Pending is a newly selected image awaiting upload.
	Pending *PendingUpload

	// Clear removes the slot's image. Ignored when Pending is set.
	Clear bool
}

// FormState holds the operator's in-progress edits for one document as a
// mutable local model, distinct from the remote snapshot it was initialized
// from. It never writes to the remote store itself; the save pipeline reads
// it exactly once per save attempt.
type FormState struct {
	// Doc describes the document category being edited.
	Doc Descriptor

	// ID is the target document identifier. For singletons this is the
	// descriptor's fixed id; products carry their own.
	ID string

	// Fields maps scalar field names to their current local values.
	// Values are written verbatim on save; an empty string clears the
	// remote field.
	Fields map[string]any

	// Slots maps slot keys to in-progress image edits. Untouched slots
	// have no entry.
	Slots map[SlotKey]SlotEdit
}

// NewFormState creates an empty edit state for a document.
func NewFormState(doc Descriptor, id string) *FormState {
	if doc.Singleton && id == "" {
		id = doc.ID
	}
	return &FormState{
		Doc:    doc,
		ID:     id,
		Fields: make(map[string]any),
		Slots:  make(map[SlotKey]SlotEdit),
	}
}

// SetField records a scalar field value.
func (f *FormState) SetField(name string, value any) {
	f.Fields[name] = value
}

// AttachImage stages a local file for the slot at group/position.
func (f *FormState) AttachImage(group string, position int, path string) {
	f.Slots[NewSlotKey(group, position)] = SlotEdit{Pending: &PendingUpload{Path: path}}
}

// ClearImage marks the slot at group/position for removal.
func (f *FormState) ClearImage(group string, position int) {
	f.Slots[NewSlotKey(group, position)] = SlotEdit{Clear: true}
}

// Cleared reports whether the operator removed the image at the given slot.
func (f *FormState) Cleared(key SlotKey) bool {
	return f.Slots[key].Clear && f.Slots[key].Pending == nil
}

// Pending returns the slots holding a not-yet-uploaded image, with keys in
// deterministic order.
func (f *FormState) Pending() []SlotKey {
	var keys []SlotKey
	for k, e := range f.Slots {
		if e.Pending != nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Normalize cleans scalar field values in place per the descriptor rules.
func (f *FormState) Normalize() {
	f.Doc.Normalize(f.Fields)
}

// Validate checks the scalar fields against the descriptor rules.
func (f *FormState) Validate() error {
	return f.Doc.Validate(f.Fields)
}
