// Package parse extracts the structured tree of a plenary sitting (sections,
// agenda topics, and individual speeches) from the semi-structured verbatim
// report markup. The parser is tolerant: unknown structural variants degrade
// to speeches with fewer populated fields instead of aborting.
package parse

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

// Error is returned when a document is structurally unrecognizable.
type Error struct {
	SittingID string
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse %s: %s", e.SittingID, e.Reason)
}

// Sitting parses the verbatim report bytes for one sitting date into the
// section/topic/speech tree. It fails only when no textual content at all
// can be recovered.
func Sitting(date time.Time, data []byte) (*plenary.SittingDocument, error) {
	sittingID := plenary.SittingID(date)

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{SittingID: sittingID, Reason: fmt.Sprintf("invalid markup: %v", err)}
	}

	w := &walker{
		doc: &plenary.SittingDocument{
			SittingID: sittingID,
			Date:      date,
		},
	}
	w.walk(root)
	w.flushSpeech()

	if len(w.doc.Speeches) == 0 && len(w.doc.Topics) == 0 {
		return nil, &Error{SittingID: sittingID, Reason: "no sections, topics, or speeches recovered"}
	}
	return w.doc, nil
}

// walker carries the traversal state: the open section and topic indices and
// the speech currently being accumulated.
type walker struct {
	doc *plenary.SittingDocument

	sectionIdx int
	topicIdx   int
	started    bool

	current    *plenary.Speech
	paragraphs []string
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer:
			return
		case atom.H1:
			w.openSection(collapseWhitespace(textContent(n)))
			return
		case atom.H2, atom.H3, atom.H4:
			w.openTopic(collapseWhitespace(textContent(n)))
			return
		case atom.P:
			w.paragraph(n)
			return
		case atom.Td, atom.Div, atom.Span:
			if class := nodeClass(n); class != "" {
				switch {
				case strings.Contains(class, "doc_title"):
					w.openSection(collapseWhitespace(textContent(n)))
					return
				case strings.Contains(class, "doc_subtitle"):
					w.openTopic(collapseWhitespace(textContent(n)))
					return
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) openSection(title string) {
	if title == "" {
		return
	}
	w.flushSpeech()
	w.doc.Sections = append(w.doc.Sections, plenary.Section{
		Title: title,
		Order: len(w.doc.Sections),
	})
	w.sectionIdx = len(w.doc.Sections) - 1
	w.started = true
}

func (w *walker) openTopic(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	w.flushSpeech()
	section := -1
	if len(w.doc.Sections) > 0 {
		section = w.sectionIdx
	}
	w.doc.Topics = append(w.doc.Topics, plenary.Topic{
		Title:      title,
		Order:      len(w.doc.Topics),
		SectionIdx: section,
	})
	w.topicIdx = len(w.doc.Topics) - 1
	w.started = true
}

// paragraph handles one <p> run: a paragraph opening with a bold or italic
// attribution starts a new speech, anything else continues the current one.
func (w *walker) paragraph(n *html.Node) {
	attribution, rest := splitAttribution(n)
	if attribution != "" {
		w.flushSpeech()
		speaker, group, language := parseAttribution(attribution)
		lang, content := extractLanguage(rest)
		if language == "" {
			language = lang
		}
		w.current = &plenary.Speech{
			SpeakerName:       speaker,
			PoliticalGroupRaw: group,
			Language:          language,
		}
		if content != "" {
			w.paragraphs = append(w.paragraphs, content)
		}
		return
	}

	text := collapseWhitespace(textContent(n))
	if text == "" {
		return
	}
	if w.current == nil {
		// Content with no recoverable attribution still becomes a speech,
		// with a null speaker.
		w.current = &plenary.Speech{}
	}
	w.paragraphs = append(w.paragraphs, text)
}

// flushSpeech finalizes the accumulated speech, attaching the enclosing
// topic and the monotonic order index.
func (w *walker) flushSpeech() {
	if w.current == nil {
		return
	}
	speech := *w.current
	w.current = nil

	speech.Content = strings.Join(w.paragraphs, "\n")
	w.paragraphs = nil
	if speech.Content == "" && speech.SpeakerName == "" {
		return
	}

	speech.Order = len(w.doc.Speeches)
	speech.SittingID = w.doc.SittingID
	speech.ID = plenary.SpeechID(w.doc.SittingID, speech.Order)
	speech.TopicIdx = -1
	if len(w.doc.Topics) > 0 {
		speech.TopicIdx = w.topicIdx
		speech.Topic = strings.TrimSpace(w.doc.Topics[w.topicIdx].Title)
	}
	w.doc.Speeches = append(w.doc.Speeches, speech)
}

// nodeClass returns the class attribute, lowercased.
func nodeClass(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// collapseWhitespace trims and folds runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
