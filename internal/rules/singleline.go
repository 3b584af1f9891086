package rules

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

// RegexpSingleline matches each physical line on its own and counts at most
// one occurrence per line.
type RegexpSingleline struct {
	detector
	// IgnoreComments drops matches that touch a // or /* */ comment.
	IgnoreComments bool
}

func NewRegexpSingleline() *RegexpSingleline {
	return &RegexpSingleline{detector: detector{Options: defaultOptions()}}
}

func (r *RegexpSingleline) Name() string { return "RegexpSingleline" }

func (r *RegexpSingleline) Configure(s *module.Settings) error {
	if err := s.Bool("ignoreComments", &r.IgnoreComments); err != nil {
		return err
	}
	return r.configure(s, regexp2.None)
}

// Compile rebuilds the pattern after Options were set directly.
func (r *RegexpSingleline) Compile() error { return r.compile(regexp2.None) }

func (r *RegexpSingleline) Process(text string) violation.List {
	activate(r)
	return r.scan(func() error {
		var comments commentScanner
		for i, line := range splitLines(text) {
			runes := []rune(line)
			var skip []span
			if r.IgnoreComments {
				skip = comments.spans(runes)
			}
			m, err := r.re.FindRunesMatch(runes)
			for err == nil && m != nil && inComment(skip, m.Index, m.Index+m.Length) {
				m, err = r.re.FindNextMatch(m)
			}
			if err != nil {
				return err
			}
			if m != nil && !r.match(i+1, m.String()) {
				return nil
			}
		}
		return nil
	})
}

// splitLines breaks text into physical lines. A trailing newline does not
// start another line.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
