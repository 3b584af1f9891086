package ast

import (
	"math/bits"
	"strings"
)

// KindSet is a fixed-size bit set over Kind.
type KindSet [2]uint64

// NewKindSet returns a set holding the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns a copy of s that also contains k.
func (s KindSet) With(k Kind) KindSet {
	s[k/64] |= 1 << (k % 64)
	return s
}

func (s KindSet) Has(k Kind) bool {
	return s[k/64]&(1<<(k%64)) != 0
}

func (s KindSet) Union(o KindSet) KindSet {
	return KindSet{s[0] | o[0], s[1] | o[1]}
}

// Minus returns the kinds of s that are not in o.
func (s KindSet) Minus(o KindSet) KindSet {
	return KindSet{s[0] &^ o[0], s[1] &^ o[1]}
}

func (s KindSet) SubsetOf(o KindSet) bool {
	return s.Minus(o).Empty()
}

func (s KindSet) Empty() bool {
	return s[0] == 0 && s[1] == 0
}

func (s KindSet) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1])
}

// Kinds lists the members of s in declaration order.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < kindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
