// Package classify maps distinct agenda-topic strings to a fixed controlled
// vocabulary of policy areas using an LLM. Classification works per distinct
// trimmed topic rather than per speech: two speeches sharing a topic always
// receive the identical classification, and LLM spend drops by an order of
// magnitude on a typical sitting.
package classify

// Vocabulary is the closed, order-preserving set of policy labels. The model
// must answer with exactly one of these; anything else is a schema violation.
var Vocabulary = []string{
	"Procedural & Parliamentary business",
	"Institutional affairs & governance",
	"EU budget & MFF",
	"Economy & industrial policy",
	"Single market, competition & consumer protection",
	"Trade & globalization",
	"Taxation & anti-money laundering",
	"Monetary & financial stability",
	"Digital policy & data protection",
	"Media, information & disinformation",
	"Energy & energy security",
	"Climate, environment & biodiversity",
	"Agriculture & fisheries",
	"Transport & mobility",
	"Health",
	"Research, innovation & space",
	"Education, culture & sport",
	"Social policy & employment",
	"Rule of law & fundamental rights",
	"Justice, security & policing",
	"Migration & asylum",
	"Security & defence",
	"Enlargement & neighbourhood policy",
	"Development & humanitarian aid",
	"Foreign policy — Europe & Eastern Neighbourhood",
	"Foreign policy — Middle East & North Africa",
	"Foreign policy — Sub-Saharan Africa",
	"Foreign policy — Americas",
	"Foreign policy — Asia-Pacific",
}

var vocabularySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Vocabulary))
	for _, label := range Vocabulary {
		set[label] = struct{}{}
	}
	return set
}()

// ValidLabel reports whether the label belongs to the controlled vocabulary.
func ValidLabel(label string) bool {
	_, ok := vocabularySet[label]
	return ok
}
