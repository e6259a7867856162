package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/eliphany/siteadmin/internal/content"
	"github.com/eliphany/siteadmin/internal/session"
)

// editFlags are the non-interactive edit options shared by the document
// commands. When any of them is set the interactive form is skipped.
type editFlags struct {
	sets   []string // field=value
	images []string // group:pos=path
	clears []string // group:pos
	yes    bool
}

func registerEditFlags(cmd *cobra.Command, flags *editFlags) {
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "set a field, e.g. --set heroHeadline='New headline'")
	cmd.Flags().StringArrayVar(&flags.images, "image", nil, "attach an image, e.g. --image instagramImages:2=./feed.jpg")
	cmd.Flags().StringArrayVar(&flags.clears, "clear", nil, "clear an image slot, e.g. --clear heroBackgroundImage:0")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "save without confirmation")
}

func (f *editFlags) nonInteractive() bool {
	return len(f.sets) > 0 || len(f.images) > 0 || len(f.clears) > 0
}

// runEdit loads the document, collects edits either from flags or from the
// interactive form, and saves.
func runEdit(ctx context.Context, sess *session.Session, desc content.Descriptor, flags *editFlags) error {
	if err := sess.Load(ctx); err != nil {
		return fmt.Errorf("failed to load %s: %w", desc.Type, err)
	}
	form := sess.Form()

	printRemote(form, desc)
	if remote := sess.Remote(); len(desc.Slots) > 0 {
		pairs := make(map[string]string, len(desc.Slots))
		for _, g := range desc.Slots {
			var slots []content.ImageSlot
			if remote != nil {
				slots = remote.Slots[g.Name]
			}
			pairs[g.Name] = slotSummary(slots, g.Max)
		}
		out.KeyValues(pairs)
	}

	if flags.nonInteractive() {
		if err := applyFlagEdits(form, desc, flags); err != nil {
			return err
		}
	} else {
		confirmed, err := runInteractiveForm(form, desc, flags.yes)
		if err != nil {
			return err
		}
		if !confirmed {
			out.Muted("Nothing saved.")
			return nil
		}
	}

	if err := sess.Save(ctx); err != nil {
		out.Error("Save failed: %v", err)
		return err
	}
	out.Success("Saved %s", form.ID)
	return nil
}

// applyFlagEdits applies --set, --image and --clear values to the form.
func applyFlagEdits(form *content.FormState, desc content.Descriptor, flags *editFlags) error {
	for _, set := range flags.sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected field=value", set)
		}
		field, found := desc.Field(name)
		if !found {
			return fmt.Errorf("%s has no field %q", desc.Type, name)
		}
		form.SetField(name, fieldValueFromString(field, value))
	}

	for _, img := range flags.images {
		slot, path, ok := strings.Cut(img, "=")
		if !ok {
			return fmt.Errorf("invalid --image %q, expected group:pos=path", img)
		}
		group, pos, err := parseSlotRef(desc, slot)
		if err != nil {
			return err
		}
		form.AttachImage(group, pos, path)
	}

	for _, slot := range flags.clears {
		group, pos, err := parseSlotRef(desc, slot)
		if err != nil {
			return err
		}
		form.ClearImage(group, pos)
	}

	return form.Validate()
}

// fieldValueFromString converts flag input to the field's in-memory shape.
func fieldValueFromString(field content.Field, value string) any {
	switch field.Kind {
	case content.KindBool:
		b, err := strconv.ParseBool(value)
		return err == nil && b
	case content.KindTags:
		return content.ParseTags(value)
	case content.KindParagraphs:
		return paragraphsFromText(value)
	default:
		return value
	}
}

// parseSlotRef parses "group:pos" and checks it against the descriptor.
func parseSlotRef(desc content.Descriptor, ref string) (string, int, error) {
	group, posStr, ok := strings.Cut(ref, ":")
	if !ok {
		// A bare group name addresses position 0, the common case for
		// single-image groups.
		group, posStr = ref, "0"
	}
	g, found := desc.SlotGroup(group)
	if !found {
		return "", 0, fmt.Errorf("%s has no image group %q", desc.Type, group)
	}
	pos, err := strconv.Atoi(posStr)
	if err != nil || pos < 0 || pos >= g.Max {
		return "", 0, fmt.Errorf("invalid position %q for %s (0..%d)", posStr, group, g.Max-1)
	}
	return group, pos, nil
}

// runInteractiveForm edits the document's scalar fields in a terminal form
// and asks for confirmation. Image changes go through the --image and
// --clear flags; the form covers text only.
func runInteractiveForm(form *content.FormState, desc content.Descriptor, skipConfirm bool) (bool, error) {
	values := make(map[string]*string, len(desc.Fields))
	bools := make(map[string]*bool)

	var inputs []huh.Field
	for _, field := range desc.Fields {
		field := field
		current := form.Fields[field.Name]

		if field.Kind == content.KindBool {
			b, _ := current.(bool)
			bools[field.Name] = &b
			inputs = append(inputs, huh.NewConfirm().
				Title(field.Name).
				Value(bools[field.Name]))
			continue
		}

		s := fieldValueToString(field, current)
		values[field.Name] = &s

		switch field.Kind {
		case content.KindParagraphs:
			inputs = append(inputs, huh.NewText().
				Title(field.Name).
				Description(fmt.Sprintf("up to %d paragraphs, separated by blank lines", content.MaxIntroParagraphs)).
				Value(values[field.Name]))
		default:
			input := huh.NewInput().
				Title(field.Name).
				Value(values[field.Name])
			if field.MaxLen > 0 {
				input = input.CharLimit(field.MaxLen).
					Description(fmt.Sprintf("max %d characters", field.MaxLen))
			}
			if field.Kind == content.KindTags {
				input = input.Description("comma-separated tags")
			}
			inputs = append(inputs, input)
		}
	}

	confirmed := skipConfirm
	if !skipConfirm {
		inputs = append(inputs, huh.NewConfirm().
			Title(fmt.Sprintf("Save %s?", form.ID)).
			Value(&confirmed))
	}

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return false, fmt.Errorf("edit cancelled: %w", err)
	}
	if !confirmed {
		return false, nil
	}

	for _, field := range desc.Fields {
		if field.Kind == content.KindBool {
			form.SetField(field.Name, *bools[field.Name])
			continue
		}
		form.SetField(field.Name, fieldValueFromString(field, *values[field.Name]))
	}
	return true, form.Validate()
}

// fieldValueToString renders a field's in-memory value for form display.
func fieldValueToString(field content.Field, value any) string {
	switch field.Kind {
	case content.KindTags:
		tags, _ := value.([]string)
		return strings.Join(tags, ", ")
	case content.KindParagraphs:
		paras, _ := value.([]content.Paragraph)
		texts := make([]string, 0, len(paras))
		for _, p := range paras {
			texts = append(texts, p.Text)
		}
		return strings.Join(texts, "\n\n")
	default:
		s, _ := value.(string)
		return s
	}
}

// paragraphsFromText splits form input on blank lines into paragraphs,
// dropping blanks and truncating to the intro limit.
func paragraphsFromText(text string) []content.Paragraph {
	var paras []content.Paragraph
	for _, chunk := range strings.Split(text, "\n\n") {
		paras = append(paras, content.Paragraph{Text: strings.TrimSpace(chunk)})
	}
	return content.FilterParagraphs(paras)
}

// printRemote shows the loaded document state before editing.
func printRemote(form *content.FormState, desc content.Descriptor) {
	out.Title("%s (%s)", form.ID, desc.Type)

	pairs := make(map[string]string, len(desc.Fields))
	for _, field := range desc.Fields {
		pairs[field.Name] = fieldValueToString(field, form.Fields[field.Name])
		if field.Kind == content.KindBool {
			b, _ := form.Fields[field.Name].(bool)
			pairs[field.Name] = strconv.FormatBool(b)
		}
	}
	out.KeyValues(pairs)
}

// slotSummary lists a group's occupied positions for display.
func slotSummary(slots []content.ImageSlot, max int) string {
	if len(slots) == 0 {
		return "(none)"
	}
	positions := make([]int, 0, len(slots))
	for _, s := range slots {
		positions = append(positions, s.Position)
	}
	sort.Ints(positions)
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%d of %d (positions %s)", len(slots), max, strings.Join(parts, ", "))
}
