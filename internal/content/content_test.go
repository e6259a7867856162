package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestValidateLengthLimits(t *testing.T) {
	fields := Home.ParseFields(map[string]any{})
	fields["heroHeadline"] = strings.Repeat("x", 60)
	if err := Home.Validate(fields); err != nil {
		t.Errorf("60 characters should pass: %v", err)
	}

	fields["heroHeadline"] = strings.Repeat("x", 61)
	if err := Home.Validate(fields); err == nil {
		t.Error("61 characters should fail")
	}

	// Limits count runes, not bytes.
	fields["heroHeadline"] = strings.Repeat("é", 60)
	if err := Home.Validate(fields); err != nil {
		t.Errorf("60 multi-byte runes should pass: %v", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	fields := Product.ParseFields(map[string]any{})
	if err := Product.Validate(fields); err == nil {
		t.Error("empty product should fail validation")
	}

	fields["name"] = "Ankara dress"
	fields["shortDescription"] = "Bold print"
	fields["description"] = "A statement piece."
	fields["category"] = "dresses"
	if err := Product.Validate(fields); err != nil {
		t.Errorf("complete product should pass: %v", err)
	}

	// Whitespace-only does not satisfy a required trimmed field.
	fields["name"] = "   "
	if err := Product.Validate(fields); err == nil {
		t.Error("whitespace-only name should fail")
	}
}

func TestNormalize(t *testing.T) {
	fields := map[string]any{
		"instagramHandle": "@sample.shop",
		"heroHeadline":    "  keep spaces  ",
	}
	Home.Normalize(fields)
	if fields["instagramHandle"] != "sample.shop" {
		t.Errorf("expected handle stripped, got %v", fields["instagramHandle"])
	}
	// heroHeadline has no Trim flag; it stays verbatim.
	if fields["heroHeadline"] != "  keep spaces  " {
		t.Errorf("untrimmed field was modified: %v", fields["heroHeadline"])
	}

	product := map[string]any{"name": "  Ankara dress  "}
	Product.Normalize(product)
	if product["name"] != "Ankara dress" {
		t.Errorf("expected trimmed name, got %v", product["name"])
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags(" fat burner, keto , , 30-day supply, keto ")
	want := []string{"fat burner", "keto", "30-day supply"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTags = %v, want %v", got, want)
	}
}

func TestFilterParagraphs(t *testing.T) {
	in := []Paragraph{
		{Text: "First."},
		{Text: "   "},
		{Text: "Second."},
		{Text: "Third."},
		{Text: "Fourth."},
	}
	got := FilterParagraphs(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(got))
	}
	if got[0].Text != "First." || got[2].Text != "Third." {
		t.Errorf("unexpected filtering result: %v", got)
	}
}

func TestParagraphWireShape(t *testing.T) {
	data, err := json.Marshal(Paragraph{Text: "Hello."})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"_type":"block","children":[{"_type":"span","marks":[],"text":"Hello."}],"style":"normal"}`
	if string(data) != want {
		t.Errorf("paragraph wire shape = %s, want %s", data, want)
	}

	paras := ParagraphsFromRaw([]any{
		map[string]any{"children": []any{map[string]any{"text": "Hello."}}},
	})
	if len(paras) != 1 || paras[0].Text != "Hello." {
		t.Errorf("round-trip lost text: %v", paras)
	}
}

func TestWaLink(t *testing.T) {
	got := WaLink("+2348012345678", "I want to order")
	want := "https://wa.me/+2348012345678?text=I+want+to+order"
	if got != want {
		t.Errorf("WaLink = %q, want %q", got, want)
	}
	if got := WaLink("+2348012345678", ""); got != "https://wa.me/+2348012345678" {
		t.Errorf("empty message should omit text parameter, got %q", got)
	}
}

func TestSynthesizeKey(t *testing.T) {
	gallery, _ := Home.SlotGroup("instagramImages")
	if key := gallery.SynthesizeKey(2); key != "ig-2" {
		t.Errorf("expected ig-2, got %q", key)
	}
	hero, _ := Home.SlotGroup("heroBackgroundImage")
	if key := hero.SynthesizeKey(0); key != "" {
		t.Errorf("single-image group should have no key, got %q", key)
	}
}

func TestSlotKeyRoundTrip(t *testing.T) {
	key := NewSlotKey("instagramImages", 3)
	group, pos, err := key.Split()
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if group != "instagramImages" || pos != 3 {
		t.Errorf("round trip gave %s/%d", group, pos)
	}
	if _, _, err := SlotKey("nodelimiter").Split(); err == nil {
		t.Error("malformed key should fail")
	}
}

func TestParseSlotsSkipsNullGalleryEntries(t *testing.T) {
	raw := map[string]any{
		"instagramImages": []any{
			map[string]any{"_key": "ig-0", "asset": map[string]any{"_ref": "image-a"}},
			nil,
			map[string]any{"asset": map[string]any{"_ref": "image-c"}},
		},
	}
	slots := Home.ParseSlots(raw)
	group := slots["instagramImages"]
	if len(group) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(group))
	}
	// Null entries keep their position for the ones after them.
	if group[1].Position != 2 {
		t.Errorf("expected third entry at position 2, got %d", group[1].Position)
	}
	if group[0].StableKey != "ig-0" || group[1].StableKey != "" {
		t.Errorf("unexpected keys: %q %q", group[0].StableKey, group[1].StableKey)
	}
}

func TestImageSlotWireShape(t *testing.T) {
	data, err := json.Marshal(ImageSlot{Position: 1, StableKey: "ig-1", AssetRef: "image-abc"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"_type":"image","_key":"ig-1","asset":{"_ref":"image-abc"}}`
	if string(data) != want {
		t.Errorf("image wire shape = %s, want %s", data, want)
	}

	var slot ImageSlot
	if err := json.Unmarshal(data, &slot); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if slot.StableKey != "ig-1" || slot.AssetRef != "image-abc" {
		t.Errorf("round trip lost data: %+v", slot)
	}
}

func TestPendingUploadSizeLimit(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.jpg")
	if err := os.WriteFile(small, []byte("tiny"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := (PendingUpload{Path: small}).Read(); err != nil {
		t.Errorf("small file should read: %v", err)
	}

	big := filepath.Join(dir, "big.jpg")
	if err := os.WriteFile(big, make([]byte, MaxImageBytes+1), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := (PendingUpload{Path: big}).Read(); err == nil {
		t.Error("oversized file should be rejected")
	}
}

func TestDefaultButtonFields(t *testing.T) {
	fields := DefaultButtonFields()
	if err := Button.Validate(fields); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if fields["phoneNumber"] != DefaultButtonPhone {
		t.Errorf("unexpected default phone: %v", fields["phoneNumber"])
	}
	if len(Buttons) != 6 {
		t.Errorf("expected 6 button placements, got %d", len(Buttons))
	}
}
