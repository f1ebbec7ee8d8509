// internal/market/requirements.go
package market

// TagHighQuality is the only requirement tag with an attached rule: bids
// carrying it are rejected unless the product's quality score is at least
// HighQualityThreshold. Unknown tags are carried through without effect.
const (
	TagHighQuality       = "high_quality"
	HighQualityThreshold = 80
)

// tagRules maps requirement tags to their admission predicate over the
// product's quality score. Adding a tag rule here extends the policy.
var tagRules = map[string]func(quality int) bool{
	TagHighQuality: func(quality int) bool { return quality >= HighQualityThreshold },
}

// CheckRequirements reports whether every tagged requirement is satisfied by
// the given quality score. It runs at bid placement and again at selection
// time, so a quality edit racing a bid cannot slip a stale check through.
func CheckRequirements(quality int, requirements []string) error {
	for _, tag := range requirements {
		rule, ok := tagRules[tag]
		if !ok {
			continue
		}
		if !rule(quality) {
			return ErrRequirementsNotMet
		}
	}
	return nil
}

// dedupeTags removes duplicate requirement tags, preserving first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
