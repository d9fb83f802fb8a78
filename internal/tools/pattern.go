package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// Asset patterns are literal text with typed placeholders:
//
//	{version}   the release version without its leading "v"
//	{date}      2024-01-31
//	{datetime}  2024-01-31T07-53-03
//	{time}      07:53:03
//
// Literal text is matched exactly; no other characters are special.

type segmentKind int

const (
	segLiteral segmentKind = iota
	segVersion
	segDate
	segDateTime
	segTime
)

var placeholderKinds = map[string]segmentKind{
	"version":  segVersion,
	"date":     segDate,
	"datetime": segDateTime,
	"time":     segTime,
}

var placeholderExprs = map[segmentKind]string{
	segDate:     `\d{4}-\d{2}-\d{2}`,
	segDateTime: `\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}`,
	segTime:     `\d{2}:\d{2}:\d{2}`,
}

type segment struct {
	kind segmentKind
	text string
}

// Pattern is a parsed asset-name pattern.
type Pattern struct {
	raw      string
	segments []segment
}

// ParsePattern splits raw into literal and placeholder segments.
func ParsePattern(raw string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, fmt.Errorf("empty asset pattern")
	}
	p := Pattern{raw: raw}
	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			p.segments = append(p.segments, segment{kind: segLiteral, text: rest})
			break
		}
		if open > 0 {
			p.segments = append(p.segments, segment{kind: segLiteral, text: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return Pattern{}, fmt.Errorf("unterminated placeholder in pattern %q", raw)
		}
		name := rest[open+1 : open+end]
		kind, ok := placeholderKinds[name]
		if !ok {
			return Pattern{}, fmt.Errorf("unknown placeholder {%s} in pattern %q", name, raw)
		}
		p.segments = append(p.segments, segment{kind: kind})
		rest = rest[open+end+1:]
	}
	return p, nil
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Compile builds the search expression for a concrete version.
func (p Pattern) Compile(version string) (*regexp.Regexp, error) {
	var b strings.Builder
	for _, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			b.WriteString(regexp.QuoteMeta(seg.text))
		case segVersion:
			b.WriteString(regexp.QuoteMeta(version))
		default:
			b.WriteString(placeholderExprs[seg.kind])
		}
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", p.raw, err)
	}
	return re, nil
}

// Matcher selects release assets for one pattern and version.
type Matcher struct {
	pattern  Pattern
	re       *regexp.Regexp
	anchored *regexp.Regexp
}

// NewMatcher parses and compiles pattern for version.
func NewMatcher(pattern, version string) (*Matcher, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	re, err := p.Compile(version)
	if err != nil {
		return nil, err
	}
	anchored, err := regexp.Compile(`(?:` + re.String() + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: p, re: re, anchored: anchored}, nil
}

// Match reports whether the pattern occurs anywhere in name.
func (m *Matcher) Match(name string) bool {
	return m.re.MatchString(name)
}

// Select returns the first matching asset. An asset whose match runs to the
// end of its name wins over one that only contains the pattern, so
// "x.tar.gz" is chosen before "x.tar.gz.sha256" regardless of order.
func (m *Matcher) Select(assets []Asset) (Asset, bool) {
	var (
		first Asset
		found bool
	)
	for _, a := range assets {
		if !m.re.MatchString(a.Name) {
			continue
		}
		if m.anchored.MatchString(a.Name) {
			return a, true
		}
		if !found {
			first, found = a, true
		}
	}
	return first, found
}

// archive suffixes recognised when deriving {stem}.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".zip", ".tar.xz"}

func assetStem(name string) string {
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// expandExtractPath fills {version} and {stem} in an extract path.
func expandExtractPath(extractPath, version, asset string) string {
	r := strings.NewReplacer("{version}", version, "{stem}", assetStem(asset))
	return r.Replace(extractPath)
}
