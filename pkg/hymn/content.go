// CLAUDE:SUMMARY Parses free-text hymn bodies with "VERSO n:" and "CORO:" markers into verse and chorus sections.
package hymn

import (
	"regexp"
	"strconv"
	"strings"
)

// SectionKind distinguishes verses from the chorus.
type SectionKind string

const (
	SectionVerse  SectionKind = "verse"
	SectionChorus SectionKind = "chorus"
)

// Section is one block of a hymn body.
type Section struct {
	Kind   SectionKind `json:"kind"`
	Number int         `json:"number,omitempty"`
	Lines  []string    `json:"lines"`
}

// Content is the structured form of a hymn body.
type Content struct {
	Verses []Section `json:"verses"`
	Chorus *Section  `json:"chorus,omitempty"`
}

// Valid reports whether the body has at least one verse or a chorus.
func (c Content) Valid() bool {
	return len(c.Verses) > 0 || c.Chorus != nil
}

var (
	verseMarker  = regexp.MustCompile(`(?i)^verso\s+(\d+)\s*:?\s*$`)
	chorusMarker = regexp.MustCompile(`(?i)^coro\s*:?\s*$`)
)

// ParseContent splits text on case-insensitive "VERSO n:" and "CORO:" marker
// lines. Lines before the first marker and blank lines are dropped, as are
// sections left without lines. A later chorus replaces an earlier one.
func ParseContent(text string) Content {
	var (
		out     Content
		current *Section
		lines   []string
	)

	flush := func() {
		if current == nil {
			return
		}
		var kept []string
		for _, l := range lines {
			l = strings.TrimRight(l, " \t\r")
			if l != "" {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			return
		}
		s := *current
		s.Lines = kept
		if s.Kind == SectionVerse {
			out.Verses = append(out.Verses, s)
		} else {
			out.Chorus = &s
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := verseMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			n, err := strconv.Atoi(m[1])
			if err != nil {
				n = 1
			}
			current = &Section{Kind: SectionVerse, Number: n}
			lines = nil
			continue
		}
		if chorusMarker.MatchString(trimmed) {
			flush()
			current = &Section{Kind: SectionChorus}
			lines = nil
			continue
		}
		if current != nil {
			lines = append(lines, line)
		}
	}
	flush()
	return out
}
