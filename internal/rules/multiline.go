package rules

import (
	"sort"

	"github.com/dlclark/regexp2"

	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

// RegexpMultiline matches the whole file as one buffer. ^ and $ anchor at
// line boundaries; with MatchAcrossLines a dot also matches newlines.
// Violations are reported on the line where each match starts.
type RegexpMultiline struct {
	detector
	MatchAcrossLines bool
}

func NewRegexpMultiline() *RegexpMultiline {
	return &RegexpMultiline{detector: detector{Options: defaultOptions()}}
}

func (r *RegexpMultiline) Name() string { return "RegexpMultiline" }

func (r *RegexpMultiline) options() regexp2.RegexOptions {
	var opts regexp2.RegexOptions = regexp2.Multiline
	if r.MatchAcrossLines {
		opts |= regexp2.Singleline
	}
	return opts
}

func (r *RegexpMultiline) Configure(s *module.Settings) error {
	if err := s.Bool("matchAcrossLines", &r.MatchAcrossLines); err != nil {
		return err
	}
	return r.configure(s, r.options())
}

// Compile rebuilds the pattern after Options were set directly.
func (r *RegexpMultiline) Compile() error { return r.compile(r.options()) }

func (r *RegexpMultiline) Process(text string) violation.List {
	activate(r)
	return r.scan(func() error {
		runes := []rune(text)
		starts := lineStarts(runes)
		m, err := r.re.FindRunesMatch(runes)
		for ; m != nil; m, err = r.re.FindNextMatch(m) {
			if !r.match(lineOf(starts, m.Index), m.String()) {
				return nil
			}
		}
		return err
	})
}

// lineStarts returns the rune offset at which every line begins.
func lineStarts(runes []rune) []int {
	starts := []int{0}
	for i, r := range runes {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf maps a rune offset to its 1-based line.
func lineOf(starts []int, offset int) int {
	return sort.SearchInts(starts, offset+1)
}
