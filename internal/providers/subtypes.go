package providers

import (
	"fmt"
	"strings"

	"tankobon/internal/metadata"
	"tankobon/internal/services"
)

// Subtypes is the set of provider-native media sub-types accepted for one
// configured media type. Comparison is case-insensitive.
type Subtypes map[string]struct{}

// SupportedSubtypes resolves the accepted sub-types for media from a
// provider's table. Media types missing from the table are unsupported and
// fail here, at construction, rather than silently matching nothing later.
func SupportedSubtypes(provider metadata.ProviderID, media metadata.MediaType, table map[metadata.MediaType][]string) (Subtypes, error) {
	names, ok := table[media]
	if !ok || len(names) == 0 {
		return nil, services.Wrap(services.ErrUnsupported, string(provider), "media type",
			fmt.Sprintf("%q is not available from this provider", media), nil)
	}
	set := make(Subtypes, len(names))
	for _, name := range names {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return set, nil
}

// Accepts reports whether a candidate's sub-type is in the set. A nil set
// accepts everything.
func (s Subtypes) Accepts(subtype string) bool {
	if s == nil {
		return true
	}
	_, ok := s[strings.ToLower(strings.TrimSpace(subtype))]
	return ok
}
