// Package placeholders implements the placeholder registry, the value resolver and
// the content substitutor.
//
// A placeholder is a token such as ${DATE} or ${USER_EMAIL}. The Registry lists the
// tokens that can be offered to a user, each with a label and an owner grouping tag.
// The Resolver computes the current value of each token for a user. The Substitutor
// replaces every token found in a piece of content with its value in a single
// left-to-right pass.
//
// Both the Registry and the Resolver are extended through ordered filter lists: the
// built-in "Core" filter runs first and every filter registered with Use runs after
// it, in registration order, so later contributions win on duplicate tokens.
package placeholders
