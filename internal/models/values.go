package models

import "sort"

// Values maps a token to the string it is replaced with
type Values map[string]string

// Clone returns an independent copy. A nil map clones to an empty one.
func (v Values) Clone() Values {
	clone := make(Values, len(v))
	for token, value := range v {
		clone[token] = value
	}
	return clone
}

// Merge returns a new map holding v overlaid with other; entries of other win
func (v Values) Merge(other Values) Values {
	merged := v.Clone()
	for token, value := range other {
		merged[token] = value
	}
	return merged
}

// Tokens returns the keys of v in sorted order
func (v Values) Tokens() []string {
	tokens := make([]string, 0, len(v))
	for token := range v {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
