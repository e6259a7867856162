package content

import (
	"encoding/json"
	"fmt"
)

// AssetRef is a durable identifier for a stored image asset, as returned by
// the asset store on upload and referenced by documents.
type AssetRef string

// ImageSlot is a positional image attachment within a document.
//
// A slot with no asset is never persisted: absence, not null, represents
// "no image". The stable key, once assigned, is carried forward across edits
// unchanged so that downstream consumers of a slot list are not corrupted by
// partial clearing.
type ImageSlot struct {
	// Position is the slot's index within its group. It is bookkeeping for
	// the merge step and is not serialized; the wire order of a slot list
	// is the filtered, position-ordered sequence.
	Position int

	// StableKey is assigned once and never changed ("" for single-image
	// groups, which the store represents without keys).
	StableKey string

	// AssetRef points at the stored asset.
	AssetRef AssetRef
}

// wireImage is the store's representation of an image reference.
type wireImage struct {
	Type  string    `json:"_type"`
	Key   string    `json:"_key,omitempty"`
	Asset wireAsset `json:"asset"`
}

type wireAsset struct {
	Ref string `json:"_ref"`
}

// MarshalJSON writes the store's image shape:
// {"_type":"image","_key":...,"asset":{"_ref":...}}.
func (s ImageSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireImage{
		Type:  "image",
		Key:   s.StableKey,
		Asset: wireAsset{Ref: string(s.AssetRef)},
	})
}

// UnmarshalJSON reads the store's image shape. Position is left at zero;
// callers assign it from the slot's place in its group.
func (s *ImageSlot) UnmarshalJSON(data []byte) error {
	var w wireImage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.StableKey = w.Key
	s.AssetRef = AssetRef(w.Asset.Ref)
	return nil
}

// SlotFromRaw parses a decoded JSON object into an ImageSlot at the given
// position. Returns false for anything that is not an image reference with
// a non-empty asset ref.
func SlotFromRaw(v any, position int) (ImageSlot, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return ImageSlot{}, false
	}
	asset, ok := m["asset"].(map[string]any)
	if !ok {
		return ImageSlot{}, false
	}
	ref, ok := asset["_ref"].(string)
	if !ok || ref == "" {
		return ImageSlot{}, false
	}
	key, _ := m["_key"].(string)
	return ImageSlot{Position: position, StableKey: key, AssetRef: AssetRef(ref)}, true
}

// SynthesizeKey builds the deterministic stable key for a slot that never
// had one: "<prefix>-<position>". Groups without a key prefix do not use
// stable keys and get "".
func (g SlotGroup) SynthesizeKey(position int) string {
	if g.KeyPrefix == "" {
		return ""
	}
	return fmt.Sprintf("%s-%d", g.KeyPrefix, position)
}

// SlotKey identifies a slot within a form for upload correlation:
// "<group>/<position>". Upload results are joined back to their originating
// slot by this key, never by completion order.
type SlotKey string

// NewSlotKey builds the slot key for a group and position.
func NewSlotKey(group string, position int) SlotKey {
	return SlotKey(fmt.Sprintf("%s/%d", group, position))
}

// Split returns the group name and position encoded in the key.
func (k SlotKey) Split() (group string, position int, err error) {
	i := -1
	for j := len(k) - 1; j >= 0; j-- {
		if k[j] == '/' {
			i = j
			break
		}
	}
	if i < 0 {
		return "", 0, fmt.Errorf("malformed slot key: %q", string(k))
	}
	group = string(k[:i])
	if _, err := fmt.Sscanf(string(k[i+1:]), "%d", &position); err != nil {
		return "", 0, fmt.Errorf("malformed slot key: %q", string(k))
	}
	return group, position, nil
}
