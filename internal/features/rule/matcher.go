package rule

import "sort"

// Attributes are the request facts a rule predicate is evaluated
// against. Amount is caller-supplied; the engine never computes it.
type Attributes struct {
	CategoryID  string
	RequesterID string
	Amount      *int64
}

// Matches reports whether every condition the rule declares holds.
func (r Rule) Matches(attrs Attributes) bool {
	if r.Conditions.MaxAmount != nil {
		// Fails closed: no amount means no match on an amount bound.
		if attrs.Amount == nil || *attrs.Amount > *r.Conditions.MaxAmount {
			return false
		}
	}
	if r.Conditions.CategoryID != "" && r.Conditions.CategoryID != attrs.CategoryID {
		return false
	}
	if r.Conditions.RequesterID != "" && r.Conditions.RequesterID != attrs.RequesterID {
		return false
	}
	return true
}

// Match filters the given rules down to active matches and orders them
// by priority (higher first), ties broken by most recent creation.
// Pure: no store access, no mutation of the input slice.
func Match(attrs Attributes, rules []Rule) []Rule {
	matched := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if r.Matches(attrs) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched
}
