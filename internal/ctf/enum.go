package ctf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRangeInverted is returned by Enum.Add when low > high.
	ErrRangeInverted = errors.New("enum range low value greater than high value")

	// ErrRangeOverlap is returned by Enum.Add when a range intersects an
	// existing one.
	ErrRangeOverlap = errors.New("enum ranges overlap")
)

// EnumRange maps the closed interval [Low, High] to Label.
type EnumRange struct {
	Low   int64
	High  int64
	Label string
}

// Enum maps ranges of its container integer to labels.
type Enum struct {
	Name      string // registered name, "" for anonymous enums
	Container *Integer
	Ranges    []EnumRange // in declaration order, pairwise disjoint
}

func (*Enum) declaration() {}

// Kind implements Declaration.
func (*Enum) Kind() Kind { return KindEnum }

// Alignment implements Declaration.
func (e *Enum) Alignment() int64 { return e.Container.Alignment() }

func (e *Enum) String() string {
	var sb strings.Builder
	sb.WriteString("enum")
	if e.Name != "" {
		sb.WriteString(" " + e.Name)
	}
	fmt.Fprintf(&sb, " : %s {", e.Container)
	for i, r := range e.Ranges {
		if i > 0 {
			sb.WriteByte(',')
		}
		if r.Low == r.High {
			fmt.Fprintf(&sb, " %s = %d", r.Label, r.Low)
		} else {
			fmt.Fprintf(&sb, " %s = %d ... %d", r.Label, r.Low, r.High)
		}
	}
	sb.WriteString(" }")
	return sb.String()
}

// Add appends the range [low, high] labelled label.
func (e *Enum) Add(low, high int64, label string) error {
	if low > high {
		return fmt.Errorf("%w: %s = %d ... %d", ErrRangeInverted, label, low, high)
	}
	for _, r := range e.Ranges {
		if low <= r.High && r.Low <= high {
			return fmt.Errorf("%w: %s [%d, %d] intersects %s [%d, %d]",
				ErrRangeOverlap, label, low, high, r.Label, r.Low, r.High)
		}
	}
	e.Ranges = append(e.Ranges, EnumRange{Low: low, High: high, Label: label})
	return nil
}

// Lookup returns the label whose range contains value.
func (e *Enum) Lookup(value int64) (string, bool) {
	for _, r := range e.Ranges {
		if value >= r.Low && value <= r.High {
			return r.Label, true
		}
	}
	return "", false
}

// Labels returns the distinct labels in declaration order.
func (e *Enum) Labels() []string {
	seen := make(map[string]bool, len(e.Ranges))
	var out []string
	for _, r := range e.Ranges {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	return out
}
