// Package merge builds the replacement document for a save attempt.
//
// Merge is the one place where the last-known remote document, the
// operator's local edits, and freshly uploaded asset references meet. It is
// a pure function: no I/O, no error paths, exactly one invocation per save
// attempt with fully resolved inputs. Every settings screen goes through
// this single implementation; the per-screen merge variations of earlier
// revisions of the console are gone on purpose.
package merge

import (
	"encoding/json"

	"github.com/eliphany/siteadmin/internal/content"
)

// RemoteDoc is the last-known remote snapshot of a document, reduced to the
// fields and slot groups the console manages. A nil *RemoteDoc means the
// document does not exist yet: all fields empty, no images.
type RemoteDoc struct {
	// Fields holds the remote scalar values.
	Fields map[string]any

	// Slots holds the remote image slots per group, position-ordered.
	Slots map[string][]content.ImageSlot
}

// SlotAt returns the remote slot at a group position, if one exists.
func (r *RemoteDoc) SlotAt(group string, position int) (content.ImageSlot, bool) {
	if r == nil {
		return content.ImageSlot{}, false
	}
	for _, s := range r.Slots[group] {
		if s.Position == position {
			return s, true
		}
	}
	return content.ImageSlot{}, false
}

// Patch is the fully resolved replacement document submitted for the
// create-or-replace write. It always carries the document's fixed
// identifier, never a server-generated one.
type Patch struct {
	// Doc describes the document category, driving the wire layout.
	Doc content.Descriptor

	// ID is the document identifier the patch is written under.
	ID string

	// Fields are the scalar values, written verbatim.
	Fields map[string]any

	// Slots are the surviving image slots per group: the filtered,
	// position-ordered sequence with no gaps.
	Slots map[string][]content.ImageSlot
}

// MarshalJSON flattens the patch into the store's document shape. Galleries
// are always written (possibly empty); single-image groups are written only
// when an image survives the merge, so absence keeps meaning "no image".
func (p Patch) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(p.Fields)+len(p.Slots)+2)
	doc["_id"] = p.ID
	doc["_type"] = p.Doc.Type
	for name, v := range p.Fields {
		doc[name] = v
	}
	for _, g := range p.Doc.Slots {
		group := p.Slots[g.Name]
		if g.Max == 1 {
			if len(group) > 0 {
				doc[g.Name] = group[0]
			}
			continue
		}
		if group == nil {
			group = []content.ImageSlot{}
		}
		doc[g.Name] = group
	}
	return json.Marshal(doc)
}

// Merge computes the replacement document from the remote snapshot, the
// local edit state, and the keyed upload results.
//
// Scalar fields: the local value always wins and is written verbatim; an
// empty string clears the field. Repeated saves are therefore idempotent,
// at the documented cost that a stale local copy overwrites fields it never
// touched (last-write-wins, single-operator assumption).
//
// Image slots, per group in position order:
//  1. an upload result for the slot replaces its asset; the stable key is
//     taken from the remote slot at the same position if one existed, else
//     synthesized deterministically from the position;
//  2. otherwise a non-empty remote slot the operator did not clear is
//     carried forward (a remote slot missing its stable key gets one
//     assigned now, once);
//  3. otherwise the slot is omitted.
//
// Merge is total: an upload result whose key matches no slot of the
// document is ignored, and any remote value the descriptor does not know is
// dropped rather than carried.
func Merge(remote *RemoteDoc, local *content.FormState, uploaded map[content.SlotKey]content.AssetRef) Patch {
	patch := Patch{
		Doc:    local.Doc,
		ID:     local.ID,
		Fields: make(map[string]any, len(local.Doc.Fields)),
		Slots:  make(map[string][]content.ImageSlot),
	}

	for _, f := range local.Doc.Fields {
		if v, ok := local.Fields[f.Name]; ok {
			patch.Fields[f.Name] = v
		}
	}

	for _, g := range local.Doc.Slots {
		var group []content.ImageSlot
		for pos := 0; pos < g.Max; pos++ {
			key := content.NewSlotKey(g.Name, pos)

			if ref, ok := uploaded[key]; ok {
				stableKey := g.SynthesizeKey(pos)
				if old, exists := remote.SlotAt(g.Name, pos); exists && old.StableKey != "" {
					stableKey = old.StableKey
				}
				group = append(group, content.ImageSlot{
					Position:  pos,
					StableKey: stableKey,
					AssetRef:  ref,
				})
				continue
			}

			old, exists := remote.SlotAt(g.Name, pos)
			if !exists || local.Cleared(key) {
				continue
			}
			if old.StableKey == "" {
				old.StableKey = g.SynthesizeKey(pos)
			}
			group = append(group, old)
		}
		if len(group) > 0 {
			patch.Slots[g.Name] = group
		}
	}

	return patch
}
