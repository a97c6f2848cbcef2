package extraction

// First returns the selected value of the first pattern that matches text.
// Later patterns are not tried once one matches, even if they would produce
// a better value.
func (c Cascade) First(text string) (string, bool) {
	for _, p := range c {
		loc := p.Re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		sub, ok := submatches(text, loc)
		if v, found := p.Select(sub, ok); found {
			return v, true
		}
	}
	return "", false
}

// All runs every pattern over the whole text and returns the selected value
// of every match, in pattern order then match order.
func (c Cascade) All(text string) []string {
	var out []string
	for _, p := range c {
		for _, loc := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			sub, ok := submatches(text, loc)
			if v, found := p.Select(sub, ok); found {
				out = append(out, v)
			}
		}
	}
	return out
}

// Any reports whether any pattern matches text.
func (c Cascade) Any(text string) bool {
	for _, p := range c {
		if p.Re.MatchString(text) {
			return true
		}
	}
	return false
}

func submatches(text string, loc []int) ([]string, []bool) {
	n := len(loc) / 2
	sub := make([]string, n)
	ok := make([]bool, n)
	for i := 0; i < n; i++ {
		if loc[2*i] >= 0 {
			sub[i] = text[loc[2*i]:loc[2*i+1]]
			ok[i] = true
		}
	}
	return sub, ok
}
