package llm

import (
	"strings"

	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// maxPromptText bounds flattened spreadsheet or text content sent inline.
const maxPromptText = 60000

// BuildSystemPrompt composes the system message for kind with the allowed
// vendor categories and strict-but-practical formatting rules.
func BuildSystemPrompt(kind entity.Kind, vendorCategories []string) string {
	parts := []string{
		"You extract structured data for a couple planning their wedding. Return ONLY JSON that matches the provided JSON Schema.",
		"The top-level object has a single key '" + kind.Plural() + "' holding a list. A document may describe several " + kind.Plural() + " or several packages; emit one entry per distinct " + string(kind) + ".",
		"Money amounts are plain numbers without currency symbols or thousands separators (write 1500, not '£1,500').",
		"If a value is not stated, omit the field. Never output null, empty strings or 0 as a placeholder.",
		"Keep 'description' to one or two plain sentences summarising the offer. Put caveats, terms and anything else noteworthy in 'notes'.",
	}
	switch kind {
	case entity.KindVenue:
		parts = append(parts,
			"'venue_hire_cost' is the fee for the space itself. 'catering_cost_per_head' is per guest. 'drinks_package_cost' is per guest when quoted that way, otherwise the package total.",
			"'capacity' is the maximum number of seated guests for the wedding breakfast; if only a standing figure is stated, use it.",
			"'features' is a short list such as 'on-site accommodation', 'outdoor ceremony', 'late licence'.",
			"'style' is one or two words: barn, country house, castle, hotel, garden, city, beach, ...",
		)
	case entity.KindVendor:
		catLine := "'category' is a short label for the service offered."
		if len(vendorCategories) > 0 {
			catLine = "'category' MUST be exactly one of: " + strings.Join(vendorCategories, ", ") + ". If uncertain, choose 'Other'."
		}
		parts = append(parts,
			catLine,
			"'price' is the headline package price. When several packages are listed, emit one entry per package with the package name appended to the vendor name only if the vendor is otherwise identical.",
		)
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the file name and, for text-like documents, the
// flattened content. When the original file is attached, text is an optional
// OCR layer sent as a hint.
func BuildUserPrompt(fileName, text string, attached bool) string {
	var b strings.Builder
	if fileName = strings.TrimSpace(fileName); fileName != "" {
		b.WriteString("Filename: ")
		b.WriteString(fileName)
		b.WriteString("\n")
	}
	text = strings.TrimSpace(text)
	if attached {
		b.WriteString("\nThe document is attached. Read every page, including tables and price lists.\n")
		if text == "" {
			return b.String()
		}
		b.WriteString("\nText layer read from the attachment (may contain OCR errors; the attachment wins where they differ):\n")
	} else {
		b.WriteString("\nDocument content:\n")
	}
	if len(text) > maxPromptText {
		b.WriteString(text[:maxPromptText])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
