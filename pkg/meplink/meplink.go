// Package meplink resolves speech speakers to known MEP records by
// normalized name and mandate date-range. Ambiguous matches are never
// guessed; the speech stays unlinked.
package meplink

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

// Candidates is the store surface the linker needs. Reads only; the computed
// links are applied by the caller inside the ingest transaction.
type Candidates interface {
	MEPCandidatesByName(ctx context.Context, normalized string, date time.Time) ([]plenary.MEP, error)
	MEPCandidatesBySurname(ctx context.Context, surname string, date time.Time) ([]plenary.MEP, error)
}

var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "madam": {}, "sir": {},
	"lord": {}, "baroness": {}, "dr": {}, "prof": {}, "professor": {},
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName lowercases, strips diacritics, collapses whitespace, and
// drops leading honorifics. The result is the lookup key against
// MEP.normalized_name.
func NormalizeName(name string) string {
	stripped, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		stripped = name
	}
	fields := strings.Fields(strings.ToLower(stripped))
	for len(fields) > 1 {
		if _, ok := honorifics[strings.TrimSuffix(fields[0], ".")]; !ok {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// Surname returns the last token of a normalized name.
func Surname(normalized string) string {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Linker computes MEP links for the speeches of one sitting.
type Linker struct {
	store           Candidates
	surnameFallback bool
	logger          *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithSurnameFallback enables the surname-only fallback when an exact
// normalized-name match finds nothing. Off by default: surname collisions
// are common enough that the policy is operator-chosen.
func WithSurnameFallback(enabled bool) Option {
	return func(l *Linker) { l.surnameFallback = enabled }
}

// WithLogger sets the structured logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Linker) { l.logger = lg }
}

// New creates a Linker over the given candidate source.
func New(store Candidates, opts ...Option) *Linker {
	l := &Linker{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Link resolves every speech with a speaker name to an MEP id when a unique
// candidate exists on the sitting date. The returned map is keyed by speech
// id. Linking never sets the political group; that stays with the parsed
// attribution so raw-vs-canonical mismatches remain detectable.
func (l *Linker) Link(ctx context.Context, date time.Time, speeches []plenary.Speech) (map[string]string, error) {
	links := make(map[string]string)
	cache := make(map[string]string) // normalized name -> mep id ("" = unresolved)

	for i := range speeches {
		speech := &speeches[i]
		if speech.SpeakerName == "" {
			continue
		}
		normalized := NormalizeName(speech.SpeakerName)
		if normalized == "" {
			continue
		}

		mepID, seen := cache[normalized]
		if !seen {
			var err error
			mepID, err = l.resolve(ctx, normalized, date)
			if err != nil {
				return nil, err
			}
			cache[normalized] = mepID
		}
		if mepID != "" {
			links[speech.ID] = mepID
		}
	}
	return links, nil
}

func (l *Linker) resolve(ctx context.Context, normalized string, date time.Time) (string, error) {
	candidates, err := l.store.MEPCandidatesByName(ctx, normalized, date)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 1:
		return candidates[0].ID, nil
	case 0:
		// fall through to surname fallback
	default:
		l.logger.Debug("ambiguous speaker, leaving unlinked", "name", normalized, "candidates", len(candidates))
		return "", nil
	}

	if !l.surnameFallback {
		return "", nil
	}
	surname := Surname(normalized)
	if surname == "" {
		return "", nil
	}
	candidates, err = l.store.MEPCandidatesBySurname(ctx, surname, date)
	if err != nil {
		return "", err
	}
	if len(candidates) == 1 {
		return candidates[0].ID, nil
	}
	return "", nil
}
