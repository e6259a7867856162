package content

// ButtonConfig names one of the six site-wide WhatsApp call-to-action
// buttons. The set is fixed; the console never creates or deletes buttons,
// it only edits these documents in place.
type ButtonConfig struct {
	// ID is the fixed document identifier.
	ID string

	// Label is the operator-facing name of the placement.
	Label string
}

// Buttons lists every CTA button placement, in display order.
var Buttons = []ButtonConfig{
	{ID: "homeWpButton", Label: "Hero CTA (Home)"},
	{ID: "wpButton", Label: "Product Card CTA"},
	{ID: "footerChatButton", Label: "Footer Link"},
	{ID: "footerWhatsappUsButton", Label: "Footer CTA"},
	{ID: "floatingWpButton", Label: "Floating Button"},
	{ID: "contactWpButton", Label: "Contact Page CTA"},
}

// DefaultButtonPhone is the placeholder phone number a button starts with
// before it has ever been saved.
const DefaultButtonPhone = "+2348012345678"

// ButtonByID returns the config for a fixed button id.
func ButtonByID(id string) (ButtonConfig, bool) {
	for _, b := range Buttons {
		if b.ID == id {
			return b, true
		}
	}
	return ButtonConfig{}, false
}

// DefaultButtonFields returns the field values for a button document that
// does not exist in the store yet.
func DefaultButtonFields() map[string]any {
	return map[string]any{
		"text":        "",
		"phoneNumber": DefaultButtonPhone,
		"preMessage":  "",
		"isActive":    true,
	}
}
