package content

// ParseFields extracts the descriptor's scalar fields from a decoded JSON
// document, converting each to its canonical in-memory shape. Missing fields
// get their zero value so that a form initialized from the result always has
// every field populated.
func (d Descriptor) ParseFields(raw map[string]any) map[string]any {
	fields := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		v, ok := raw[f.Name]
		switch f.Kind {
		case KindBool:
			b, isBool := v.(bool)
			if !ok || !isBool {
				b = false
			}
			fields[f.Name] = b
		case KindTags:
			fields[f.Name] = stringsFromRaw(v)
		case KindParagraphs:
			fields[f.Name] = ParagraphsFromRaw(v)
		default:
			s, isString := v.(string)
			if !ok || !isString {
				s = ""
			}
			fields[f.Name] = s
		}
	}
	return fields
}

// ParseSlots extracts the descriptor's image slot groups from a decoded JSON
// document. Single-image groups decode an object, galleries decode an array;
// null entries inside an array keep their position but yield no slot, so a
// gallery of [A, B, null, null] parses to slots at positions 0 and 1.
func (d Descriptor) ParseSlots(raw map[string]any) map[string][]ImageSlot {
	slots := make(map[string][]ImageSlot, len(d.Slots))
	for _, g := range d.Slots {
		v, ok := raw[g.Name]
		if !ok || v == nil {
			continue
		}
		if g.Max == 1 {
			if slot, ok := SlotFromRaw(v, 0); ok {
				slots[g.Name] = []ImageSlot{slot}
			}
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		var group []ImageSlot
		for i, item := range list {
			if i >= g.Max {
				break
			}
			if slot, ok := SlotFromRaw(item, i); ok {
				group = append(group, slot)
			}
		}
		if len(group) > 0 {
			slots[g.Name] = group
		}
	}
	return slots
}

func stringsFromRaw(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
