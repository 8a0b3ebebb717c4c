package common

import "regexp"

// NamedGroups returns the names of the named capture groups in re, in order of appearance.
func NamedGroups(re *regexp.Regexp) []string {
	var names []string
	for _, name := range re.SubexpNames() {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// SubmatchMap runs re against text and returns the named groups of the first match.
// Groups that did not participate in the match are reported as empty strings.
func SubmatchMap(re *regexp.Regexp, text string) (map[string]string, bool) {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil, false
	}
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = match[i]
	}
	return out, true
}
