package engine

// Rewrite derives a suggested text from the matched rules that carry a
// rewrite. Substitutions compose sequentially in match order: the first
// rewrite applies to the original text and each later one applies to the
// output of the previous, so overlapping patterns resolve in favour of the
// earlier rule. ok is false when no matched rule has a rewrite.
func Rewrite(text string, matches []Finding) (suggested string, ok bool) {
	suggested = text
	for _, m := range matches {
		if !m.Rule.HasRewrite() {
			continue
		}
		suggested = m.Rule.Rewrite(suggested)
		ok = true
	}
	if !ok {
		return "", false
	}
	return suggested, true
}
