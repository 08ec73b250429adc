package locktime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

var (
	ErrEmptyInput       = errors.New("lock time is empty")
	ErrUnrecognizedTime = errors.New("could not recognize lock time")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrLockInPast       = errors.New("lock time must be in the future")
)

var compactClock = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// Parser turns admin input such as "saturday 7am" or an RFC3339 timestamp
// into a lock instant.
type Parser struct {
	// TimezoneMap resolves common abbreviations to IANA names.
	TimezoneMap     map[string]string
	DefaultTimezone string

	w *when.Parser
}

// NewParser creates a Parser that falls back to defaultTZ when the caller
// gives no timezone.
func NewParser(defaultTZ string) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	return &Parser{
		TimezoneMap: map[string]string{
			"UTC": "UTC",
			"GMT": "UTC",
			"PST": "America/Los_Angeles",
			"PDT": "America/Los_Angeles",
			"MST": "America/Denver",
			"MDT": "America/Denver",
			"CST": "America/Chicago",
			"CDT": "America/Chicago",
			"EST": "America/New_York",
			"EDT": "America/New_York",
			"BST": "Europe/London",
			"CET": "Europe/Berlin",
			"JST": "Asia/Tokyo",
		},
		DefaultTimezone: defaultTZ,
		w:               w,
	}
}

// Location resolves an abbreviation or IANA name. An empty name selects the
// default timezone.
func (p *Parser) Location(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = p.DefaultTimezone
	}
	if full, ok := p.TimezoneMap[strings.ToUpper(name)]; ok {
		name = full
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// Parse returns the UTC instant described by input, which must lie strictly
// after clock.Now().
func (p *Parser) Parse(input, timezone string, clock Clock) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrEmptyInput
	}
	loc, err := p.Location(timezone)
	if err != nil {
		return time.Time{}, err
	}
	now := clock.Now().In(loc)

	parsed, err := p.parse(input, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !parsed.After(now) {
		return time.Time{}, fmt.Errorf("%w (parsed: %s, now: %s)", ErrLockInPast,
			parsed.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	return parsed.UTC(), nil
}

func (p *Parser) parse(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, input); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04", input, loc); err == nil {
		return ts, nil
	}

	normalized := strings.ToLower(input)
	normalized = strings.ReplaceAll(normalized, "today ", "today at ")
	normalized = compactClock.ReplaceAllString(normalized, "$1:$2 $3")

	r, err := p.w.Parse(normalized, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedTime, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnrecognizedTime, input)
	}
	return r.Time.In(loc).Truncate(time.Minute), nil
}
