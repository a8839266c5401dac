package rotate

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Unit is one independently animated fragment of the active text.
type Unit struct {
	Content string
	// TrailingSeparator is set on the last character of every word except
	// the final one when splitting by characters.
	TrailingSeparator bool
	// Offset is the position among all units of the text, 0..n-1.
	Offset int
	// Group is the word a character belongs to. Outside characters mode each
	// unit is its own group.
	Group int
}

// Segment splits text into units according to mode.
func Segment(text string, mode SplitMode) []Unit {
	switch mode.kind {
	case splitWords:
		return pieces(strings.Split(text, " "))
	case splitLines:
		return pieces(strings.Split(text, "\n"))
	case splitDelimiter:
		return pieces(strings.Split(text, mode.sep))
	default:
		return characters(text)
	}
}

func characters(text string) []Unit {
	words := strings.Split(text, " ")
	units := make([]Unit, 0, len(text))
	for wi, word := range words {
		last := -1
		g := uniseg.NewGraphemes(word)
		for g.Next() {
			units = append(units, Unit{Content: g.Str(), Offset: len(units), Group: wi})
			last = len(units) - 1
		}
		if last >= 0 && wi != len(words)-1 {
			units[last].TrailingSeparator = true
		}
	}
	return units
}

func pieces(parts []string) []Unit {
	units := make([]Unit, len(parts))
	for i, p := range parts {
		units[i] = Unit{Content: p, Offset: i, Group: i}
	}
	return units
}

// GroupUnits splits units into runs that share a Group, preserving order.
func GroupUnits(units []Unit) [][]Unit {
	var groups [][]Unit
	for i, u := range units {
		if i == 0 || u.Group != units[i-1].Group {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], u)
	}
	return groups
}
