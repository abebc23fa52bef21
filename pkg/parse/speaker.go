package parse

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxAttributionLen bounds how long a leading bold run can be and still be
// read as a speaker attribution rather than an emphasized sentence.
const maxAttributionLen = 160

// languagePattern matches the 2-letter language marker that opens the body
// of a speech, e.g. "(DE) Herr Präsident, ...".
var languagePattern = regexp.MustCompile(`^\(([A-Z]{2})\)\s*`)

// groupPattern captures the trailing parenthetical group label of an
// attribution, e.g. "Martin Schirdewan (The Left)".
var groupPattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// onBehalfPattern captures "on behalf of the X Group" style attributions.
var onBehalfPattern = regexp.MustCompile(`(?i),?\s*on behalf of the\s+(.+?)\s+group`)

var honorifics = []string{
	"mr", "mrs", "ms", "miss", "madam", "sir", "lord", "baroness",
	"dr", "prof", "professor",
}

// splitAttribution inspects the first rendered child of a paragraph. When it
// is a bold or italic run that looks like a speaker attribution, the
// attribution text and the remaining paragraph text are returned separately.
// Otherwise attribution is empty and the caller treats the paragraph as
// speech content.
func splitAttribution(p *html.Node) (attribution, rest string) {
	var lead *html.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		lead = c
		break
	}
	if lead == nil || !isEmphasis(lead) {
		return "", ""
	}

	attribution = collapseWhitespace(textContent(lead))
	if attribution == "" || len(attribution) > maxAttributionLen {
		return "", ""
	}

	var b strings.Builder
	for c := lead.NextSibling; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	rest = collapseWhitespace(b.String())

	// An emphasized run with no terminator and no parenthetical is more
	// likely an inline emphasis than an attribution.
	if !strings.ContainsAny(attribution, ".–-") && !strings.Contains(attribution, "(") && rest != "" && !strings.HasPrefix(rest, "–") {
		return "", ""
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "–"))
	return attribution, rest
}

func isEmphasis(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.B, atom.Strong, atom.I, atom.Em:
		return true
	case atom.Span:
		class := nodeClass(n)
		return strings.Contains(class, "bold") || strings.Contains(class, "italic")
	}
	return false
}

// parseAttribution breaks an attribution run into the speaker name, the raw
// political-group label, and an inline language code when one is embedded.
func parseAttribution(attribution string) (speaker, group, language string) {
	s := strings.TrimSpace(attribution)
	s = strings.TrimSuffix(s, "–")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(s)

	if m := languagePattern.FindStringSubmatch(s); m != nil {
		language = strings.ToLower(m[1])
		s = strings.TrimSpace(s[len(m[0]):])
	}

	if m := onBehalfPattern.FindStringSubmatch(s); m != nil {
		group = strings.TrimSpace(m[1])
		s = strings.TrimSpace(onBehalfPattern.ReplaceAllString(s, ""))
	} else if m := groupPattern.FindStringSubmatch(s); m != nil {
		group = strings.TrimSpace(m[1])
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	// Role suffixes after a comma ("Janusz Wojciechowski, Member of the
	// Commission") belong to the group column, not the name.
	if idx := strings.Index(s, ","); idx >= 0 {
		role := strings.TrimSpace(s[idx+1:])
		if group == "" && role != "" {
			group = role
		}
		s = strings.TrimSpace(s[:idx])
	}

	speaker = dropHonorifics(s)
	return speaker, group, language
}

func dropHonorifics(name string) string {
	fields := strings.Fields(name)
	for len(fields) > 1 {
		first := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		dropped := false
		for _, h := range honorifics {
			if first == h {
				fields = fields[1:]
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}
	return strings.Join(fields, " ")
}

// extractLanguage pulls a leading "(XX)" language marker off the speech body.
func extractLanguage(body string) (language, remainder string) {
	m := languagePattern.FindStringSubmatch(body)
	if m == nil {
		return "", body
	}
	return strings.ToLower(m[1]), strings.TrimSpace(body[len(m[0]):])
}
