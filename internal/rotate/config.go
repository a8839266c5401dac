// Package rotate implements the rotating headline engine: it splits the active
// text into display units, computes per-unit stagger delays and moves between
// texts either on a timer or through explicit control calls.
package rotate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrConfiguration is matched by every error returned from New.
var ErrConfiguration = errors.New("rotate: invalid configuration")

// ConfigurationError describes the field that failed validation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rotate: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

type splitKind int

const (
	splitCharacters splitKind = iota
	splitWords
	splitLines
	splitDelimiter
)

// SplitMode selects how a text is broken into display units.
type SplitMode struct {
	kind splitKind
	sep  string
}

var (
	SplitCharacters = SplitMode{kind: splitCharacters}
	SplitWords      = SplitMode{kind: splitWords}
	SplitLines      = SplitMode{kind: splitLines}
)

// SplitDelimiter splits on the literal separator sep.
func SplitDelimiter(sep string) SplitMode {
	return SplitMode{kind: splitDelimiter, sep: sep}
}

// ParseSplitMode maps the config file form to a SplitMode. Anything that is
// not a known keyword is used as a literal delimiter; an empty string selects
// characters.
func ParseSplitMode(s string) SplitMode {
	switch s {
	case "", "characters":
		return SplitCharacters
	case "words":
		return SplitWords
	case "lines":
		return SplitLines
	default:
		return SplitDelimiter(s)
	}
}

func (m SplitMode) String() string {
	switch m.kind {
	case splitWords:
		return "words"
	case splitLines:
		return "lines"
	case splitDelimiter:
		return strconv.Quote(m.sep)
	default:
		return "characters"
	}
}

type originKind int

const (
	originFirst originKind = iota
	originLast
	originCenter
	originRandom
	originIndex
)

// StaggerOrigin selects the unit that starts with zero delay.
type StaggerOrigin struct {
	kind  originKind
	index int
}

var (
	StaggerFirst  = StaggerOrigin{kind: originFirst}
	StaggerLast   = StaggerOrigin{kind: originLast}
	StaggerCenter = StaggerOrigin{kind: originCenter}
	StaggerRandom = StaggerOrigin{kind: originRandom}
)

// StaggerIndex ripples outward from the unit at offset n.
func StaggerIndex(n int) StaggerOrigin {
	return StaggerOrigin{kind: originIndex, index: n}
}

// ParseStaggerOrigin accepts "first", "last", "center", "random" or an integer
// offset. An empty string selects first.
func ParseStaggerOrigin(s string) (StaggerOrigin, error) {
	switch strings.TrimSpace(s) {
	case "", "first":
		return StaggerFirst, nil
	case "last":
		return StaggerLast, nil
	case "center":
		return StaggerCenter, nil
	case "random":
		return StaggerRandom, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return StaggerOrigin{}, fmt.Errorf("unknown stagger origin %q", s)
	}
	return StaggerIndex(n), nil
}

func (o StaggerOrigin) String() string {
	switch o.kind {
	case originLast:
		return "last"
	case originCenter:
		return "center"
	case originRandom:
		return "random"
	case originIndex:
		return strconv.Itoa(o.index)
	default:
		return "first"
	}
}

// Variant names the entry, steady and exit states a host applies to a unit.
type Variant struct {
	Initial string
	Animate string
	Exit    string
}

// Config is fixed for the lifetime of an Engine.
type Config struct {
	Texts            []string
	Split            SplitMode
	StaggerDuration  time.Duration
	StaggerFrom      StaggerOrigin
	RotationInterval time.Duration
	Loop             bool
	Auto             bool

	// Variants are assigned to units cyclically by offset.
	Variants []Variant

	// OnIndexChange is called synchronously after every committed change.
	OnIndexChange func(index int)
}

// DefaultConfig returns a config for texts with characters split, a two
// second interval, no stagger, looping and auto advance enabled.
func DefaultConfig(texts []string) Config {
	return Config{
		Texts:            texts,
		Split:            SplitCharacters,
		StaggerFrom:      StaggerFirst,
		RotationInterval: 2 * time.Second,
		Loop:             true,
		Auto:             true,
	}
}

// Validate reports the first invalid field as a *ConfigurationError.
func (c Config) Validate() error {
	if len(c.Texts) == 0 {
		return &ConfigurationError{Field: "texts", Reason: "at least one text is required"}
	}
	if c.RotationInterval <= 0 {
		return &ConfigurationError{Field: "rotation interval", Reason: fmt.Sprintf("must be positive, got %s", c.RotationInterval)}
	}
	if c.StaggerDuration < 0 {
		return &ConfigurationError{Field: "stagger duration", Reason: fmt.Sprintf("must not be negative, got %s", c.StaggerDuration)}
	}
	return nil
}
