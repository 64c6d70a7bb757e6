package entity

import (
	"fmt"
	"strings"
)

// Kind selects which collection a document or record belongs to.
type Kind string

const (
	KindVenue  Kind = "venue"
	KindVendor Kind = "vendor"
)

// ParseKind accepts singular or plural forms in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "venue", "venues":
		return KindVenue, nil
	case "vendor", "vendors":
		return KindVendor, nil
	}
	return "", fmt.Errorf("unknown kind %q (want venue or vendor)", s)
}

func (k Kind) Plural() string {
	return string(k) + "s"
}
