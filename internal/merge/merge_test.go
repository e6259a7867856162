package merge

import (
	"encoding/json"
	"testing"

	"github.com/eliphany/siteadmin/internal/content"
)

// homeRemote builds a remote home settings snapshot with the given
// instagram slots.
func homeRemote(t *testing.T, gallery []content.ImageSlot) *RemoteDoc {
	t.Helper()

	return &RemoteDoc{
		Fields: map[string]any{
			"heroHeadline":    "Old headline",
			"heroSubline":     "Old subline",
			"instagramHandle": "eliphany.ng",
			"instagramUrl":    "https://instagram.com/eliphany.ng",
		},
		Slots: map[string][]content.ImageSlot{
			"heroBackgroundImage": {{Position: 0, AssetRef: "image-hero-v1"}},
			"instagramImages":     gallery,
		},
	}
}

// homeForm builds a local edit state initialized from the remote fields.
func homeForm(t *testing.T, remote *RemoteDoc) *content.FormState {
	t.Helper()

	fs := content.NewFormState(content.Home, "")
	if remote != nil {
		for name, v := range remote.Fields {
			fs.SetField(name, v)
		}
	}
	return fs
}

// refetch simulates reading the patch back from the store: it round-trips
// the wire shape through the descriptor's parsers.
func refetch(t *testing.T, p Patch) *RemoteDoc {
	t.Helper()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal patch: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal patch: %v", err)
	}
	return &RemoteDoc{
		Fields: p.Doc.ParseFields(raw),
		Slots:  p.Doc.ParseSlots(raw),
	}
}

// wire marshals a patch so documents can be compared by their persisted
// form (slot positions are bookkeeping and not part of the wire shape).
func wire(t *testing.T, p Patch) string {
	t.Helper()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal patch: %v", err)
	}
	return string(data)
}

func TestMergePreservesUntouchedSlots(t *testing.T) {
	remote := homeRemote(t, []content.ImageSlot{
		{Position: 0, StableKey: "ig-0", AssetRef: "image-a"},
		{Position: 1, StableKey: "ig-1", AssetRef: "image-b"},
		{Position: 3, StableKey: "ig-3", AssetRef: "image-d"},
	})
	local := homeForm(t, remote)
	local.SetField("heroHeadline", "New headline")

	patch := Merge(remote, local, nil)

	gallery := patch.Slots["instagramImages"]
	if len(gallery) != 3 {
		t.Fatalf("expected 3 gallery slots, got %d", len(gallery))
	}
	want := []struct {
		pos int
		key string
		ref content.AssetRef
	}{
		{0, "ig-0", "image-a"},
		{1, "ig-1", "image-b"},
		{3, "ig-3", "image-d"},
	}
	for i, w := range want {
		got := gallery[i]
		if got.Position != w.pos || got.StableKey != w.key || got.AssetRef != w.ref {
			t.Errorf("slot %d: got {%d %q %q}, want {%d %q %q}",
				i, got.Position, got.StableKey, got.AssetRef, w.pos, w.key, w.ref)
		}
	}

	hero := patch.Slots["heroBackgroundImage"]
	if len(hero) != 1 || hero[0].AssetRef != "image-hero-v1" {
		t.Errorf("hero image not carried forward: %+v", hero)
	}
}

func TestMergeUploadedResultReplacesAsset(t *testing.T) {
	remote := homeRemote(t, []content.ImageSlot{
		{Position: 0, StableKey: "ig-0", AssetRef: "image-a"},
	})
	local := homeForm(t, remote)

	uploaded := map[content.SlotKey]content.AssetRef{
		content.NewSlotKey("instagramImages", 0): "image-a-v2",
		content.NewSlotKey("instagramImages", 2): "image-c",
	}
	patch := Merge(remote, local, uploaded)

	gallery := patch.Slots["instagramImages"]
	if len(gallery) != 2 {
		t.Fatalf("expected 2 gallery slots, got %d", len(gallery))
	}
	if gallery[0].AssetRef != "image-a-v2" {
		t.Errorf("slot 0 kept the old asset: %q", gallery[0].AssetRef)
	}
	if gallery[0].StableKey != "ig-0" {
		t.Errorf("slot 0 lost its stable key: %q", gallery[0].StableKey)
	}
	if gallery[1].StableKey != "ig-2" {
		t.Errorf("fresh slot did not get a synthesized key: %q", gallery[1].StableKey)
	}
}

func TestMergeGalleryPartialUpload(t *testing.T) {
	// Remote gallery [A, B, _, _]; operator uploads a new image only at
	// index 2. Expected output: [A, B, C] with A and B untouched.
	remote := homeRemote(t, []content.ImageSlot{
		{Position: 0, StableKey: "ig-0", AssetRef: "image-a"},
		{Position: 1, StableKey: "ig-1", AssetRef: "image-b"},
	})
	local := homeForm(t, remote)

	uploaded := map[content.SlotKey]content.AssetRef{
		content.NewSlotKey("instagramImages", 2): "image-c",
	}
	patch := Merge(remote, local, uploaded)

	gallery := patch.Slots["instagramImages"]
	if len(gallery) != 3 {
		t.Fatalf("expected 3 gallery slots, got %d", len(gallery))
	}
	if gallery[0].AssetRef != "image-a" || gallery[0].StableKey != "ig-0" {
		t.Errorf("slot 0 changed: %+v", gallery[0])
	}
	if gallery[1].AssetRef != "image-b" || gallery[1].StableKey != "ig-1" {
		t.Errorf("slot 1 changed: %+v", gallery[1])
	}
	if gallery[2].AssetRef != "image-c" || gallery[2].StableKey != "ig-2" {
		t.Errorf("slot 2 wrong: %+v", gallery[2])
	}
}

func TestMergeIdempotence(t *testing.T) {
	remote := homeRemote(t, []content.ImageSlot{
		{Position: 0, StableKey: "ig-0", AssetRef: "image-a"},
		{Position: 3, StableKey: "ig-3", AssetRef: "image-d"},
	})
	local := homeForm(t, remote)
	local.SetField("heroHeadline", "Saved twice")

	uploaded := map[content.SlotKey]content.AssetRef{
		content.NewSlotKey("instagramImages", 1): "image-b",
	}
	first := Merge(remote, local, uploaded)

	// Save again from the re-fetched snapshot with no new uploads.
	again := homeForm(t, refetch(t, first))
	again.SetField("heroHeadline", "Saved twice")
	second := Merge(refetch(t, first), again, nil)

	if wire(t, first) != wire(t, second) {
		t.Errorf("repeated save drifted:\nfirst:  %s\nsecond: %s", wire(t, first), wire(t, second))
	}
}

func TestMergeFirstSave(t *testing.T) {
	local := content.NewFormState(content.Home, "")
	local.SetField("heroHeadline", "Welcome")
	local.SetField("heroSubline", "")
	local.SetField("instagramHandle", "")
	local.SetField("instagramUrl", "")

	patch := Merge(nil, local, nil)

	if patch.ID != content.IDHomeSettings {
		t.Errorf("expected fixed document id, got %q", patch.ID)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(wire(t, patch)), &raw); err != nil {
		t.Fatalf("failed to decode patch: %v", err)
	}
	if raw["_id"] != content.IDHomeSettings || raw["_type"] != content.TypeHomeSettings {
		t.Errorf("patch missing identity: %v", raw)
	}
	if raw["heroHeadline"] != "Welcome" {
		t.Errorf("heroHeadline = %v", raw["heroHeadline"])
	}
	if _, ok := raw["heroBackgroundImage"]; ok {
		t.Error("empty single-image slot must be absent, not null")
	}
	gallery, ok := raw["instagramImages"].([]any)
	if !ok || len(gallery) != 0 {
		t.Errorf("expected empty gallery, got %v", raw["instagramImages"])
	}
}

func TestMergeClearedSlotOmitted(t *testing.T) {
	remote := homeRemote(t, []content.ImageSlot{
		{Position: 0, StableKey: "ig-0", AssetRef: "image-a"},
		{Position: 1, StableKey: "ig-1", AssetRef: "image-b"},
	})
	local := homeForm(t, remote)
	local.ClearImage("instagramImages", 0)
	local.ClearImage("heroBackgroundImage", 0)

	patch := Merge(remote, local, nil)

	gallery := patch.Slots["instagramImages"]
	if len(gallery) != 1 || gallery[0].StableKey != "ig-1" {
		t.Errorf("expected only slot ig-1 to survive, got %+v", gallery)
	}
	if _, ok := patch.Slots["heroBackgroundImage"]; ok {
		t.Error("cleared hero image still present")
	}
}

func TestMergeScalarOverwriteIsUnconditional(t *testing.T) {
	remote := homeRemote(t, nil)
	local := homeForm(t, remote)
	local.SetField("heroSubline", "")

	patch := Merge(remote, local, nil)

	if patch.Fields["heroSubline"] != "" {
		t.Errorf("empty string must clear the field, got %q", patch.Fields["heroSubline"])
	}
	// Untouched fields are still resubmitted verbatim from the form.
	if patch.Fields["instagramHandle"] != "eliphany.ng" {
		t.Errorf("instagramHandle = %q", patch.Fields["instagramHandle"])
	}
}

func TestMergeIgnoresUnknownUploadKeys(t *testing.T) {
	remote := homeRemote(t, nil)
	local := homeForm(t, remote)

	uploaded := map[content.SlotKey]content.AssetRef{
		content.NewSlotKey("noSuchGroup", 0):      "image-x",
		content.NewSlotKey("instagramImages", 99): "image-y",
	}
	patch := Merge(remote, local, uploaded)

	if len(patch.Slots["instagramImages"]) != 0 {
		t.Errorf("unknown upload keys leaked into the patch: %+v", patch.Slots)
	}
}
