package rbac

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser upper-cases the first letter of a word without touching the
// rest, matching how stored identifiers like "assignRoles" were produced.
var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeGroup canonicalizes a free-text group label into a lowercase
// snake token: runs of non-alphanumeric characters collapse into a single
// underscore, leading and trailing underscores are stripped.
// Degenerate input yields "" and must be rejected by the caller.
func NormalizeGroup(raw string) string {
	s := strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if !isAlnum(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeAction canonicalizes a free-text permission label into the
// dotted group.action form. Dotted input collapses to its last non-empty
// segment before the group is reapplied, so "roles.manage users" under
// group "roles" becomes "roles.manageUsers". Returns "" when no action
// remains after normalization.
func NormalizeAction(group, raw string) string {
	seg := strings.TrimSpace(raw)
	if strings.Contains(seg, ".") {
		last := ""
		for _, part := range strings.Split(seg, ".") {
			if part != "" {
				last = part
			}
		}
		seg = last
	}
	action := camelCase(seg)
	if action == "" {
		return ""
	}
	return group + "." + action
}

// NormalizeRoleName collapses whitespace and converts to kebab-case,
// treating camel boundaries as word breaks: "Support Team Lead" and
// "SupportTeamLead" both become "support-team-lead". Idempotent on
// already-normalized names.
func NormalizeRoleName(raw string) string {
	words := splitWords(strings.TrimSpace(raw))
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// camelCase joins words split on whitespace, hyphens, and underscores,
// upper-casing each word head and lowering only the very first rune.
func camelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(titleCaser.String(w))
	}
	out := []rune(b.String())
	out[0] = unicode.ToLower(out[0])
	return string(out)
}

// splitWords breaks an identifier into words at whitespace, separator
// punctuation, and before every interior upper-case letter, so an
// all-caps run splits per letter ("HTTPTeam" yields H, T, T, P, Team).
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			flush()
		case unicode.IsUpper(r) && len(cur) > 0:
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
