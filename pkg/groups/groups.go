// Package groups normalizes raw political-group attributions from verbatim
// reports into canonical group identifiers. Matching is case- and
// whitespace-insensitive against a curated alias table covering acronyms,
// historical renames, and cross-language spellings.
package groups

import "strings"

// Kind tags what a raw attribution refers to.
type Kind string

const (
	KindPolitical   Kind = "political"
	KindInstitution Kind = "institution"
	KindPresidency  Kind = "presidency"
	KindUnknown     Kind = "unknown"
)

// Canonical group identifiers for the current and recent parliamentary terms.
const (
	PPE      = "PPE"
	SD       = "S&D"
	Renew    = "Renew"
	VertsALE = "Verts/ALE"
	ECR      = "ECR"
	ID       = "ID"
	TheLeft  = "The Left"
	NI       = "NI"
	PfE      = "PfE"
	ESN      = "ESN"
	EFDD     = "EFDD"
)

// Canonical is the set of canonical identifiers Normalize can emit.
var Canonical = map[string]struct{}{
	PPE: {}, SD: {}, Renew: {}, VertsALE: {}, ECR: {}, ID: {},
	TheLeft: {}, NI: {}, PfE: {}, ESN: {}, EFDD: {},
}

// aliases maps folded alias forms to canonical identifiers. Folding is
// lowercasing plus whitespace removal, so entries are written compact.
var aliases = map[string]string{
	// European People's Party
	"ppe":                 PPE,
	"epp":                 PPE,
	"ppe-de":              PPE,
	"evp":                 PPE,
	"europeanpeople'sparty": PPE,

	// Socialists & Democrats
	"s&d":  SD,
	"sd":   SD,
	"pse":  SD,
	"s-d":  SD,
	"socialistsanddemocrats": SD,

	// Renew Europe, previously ALDE
	"renew":       Renew,
	"reneweurope": Renew,
	"alde":        Renew,
	"re":          Renew,

	// Greens / European Free Alliance
	"verts/ale":   VertsALE,
	"verts-ale":   VertsALE,
	"greens/efa":  VertsALE,
	"greens-efa":  VertsALE,
	"verts":       VertsALE,
	"thegreens/efa": VertsALE,

	// European Conservatives and Reformists
	"ecr": ECR,

	// Identity and Democracy, previously ENF
	"id":  ID,
	"enf": ID,
	"enl": ID,

	// The Left, previously GUE/NGL
	"theleft":       TheLeft,
	"gue/ngl":       TheLeft,
	"gue-ngl":       TheLeft,
	"gue":           TheLeft,
	"left":          TheLeft,
	"theleft-gue/ngl": TheLeft,

	// Non-attached members
	"ni":           NI,
	"non-inscrits": NI,
	"na":           NI,

	// Patriots for Europe
	"pfe":               PfE,
	"patriotsforeurope": PfE,

	// Europe of Sovereign Nations
	"esn": ESN,

	// Europe of Freedom and (Direct) Democracy
	"efdd": EFDD,
	"efd":  EFDD,
}

// presidencyMarkers match attributions of the chair.
var presidencyMarkers = []string{
	"president",
	"presidente",
	"präsident",
	"président",
	"przewodnicz",
	"the chair",
	"vice-president", // chairing vice-presidents of Parliament are attributed this way
}

// institutionMarkers match speakers acting for an institution or in a
// procedural role rather than for a group.
var institutionMarkers = []string{
	"commission",
	"council",
	"rapporteur",
	"high representative",
	"court of auditors",
	"central bank",
	"ombudsman",
	"author",
	"draftsman",
	"draftsperson",
}

// Normalize maps a raw group attribution to (canonical identifier, kind).
// Pure and deterministic. Unmatched input yields ("", KindUnknown).
func Normalize(raw string) (string, Kind) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", KindUnknown
	}

	// Institution markers win over presidency markers so that
	// "President-in-Office of the Council" and "Vice-President of the
	// Commission" are attributed to the institution, not the chair.
	lower := strings.ToLower(trimmed)
	for _, marker := range institutionMarkers {
		if strings.Contains(lower, marker) {
			return "", KindInstitution
		}
	}
	for _, marker := range presidencyMarkers {
		if strings.Contains(lower, marker) {
			return "", KindPresidency
		}
	}

	if std, ok := aliases[fold(trimmed)]; ok {
		return std, KindPolitical
	}
	return "", KindUnknown
}

// fold lowercases and removes all whitespace so alias matching ignores
// spacing variations in the source markup.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
