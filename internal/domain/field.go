package domain

import (
	"regexp"
	"strings"
	"time"
)

type Sport string

const (
	SportFootball Sport = "football"
	SportTennis   Sport = "tennis"
	SportPadel    Sport = "padel"
)

func (s Sport) Valid() bool {
	switch s {
	case SportFootball, SportTennis, SportPadel:
		return true
	}
	return false
}

// FixedDuration reports whether every session on this sport has the same length.
func (s Sport) FixedDuration() bool {
	return s == SportFootball
}

// FootballFormat is the player-count variant of a football pitch. It drives
// the opening hours of the pitch.
type FootballFormat string

const (
	FormatStandard          FootballFormat = "standard"
	FormatSixASide          FootballFormat = "six_a_side"
	FormatSevenOrEightASide FootballFormat = "seven_or_eight_a_side"
)

func (f FootballFormat) Valid() bool {
	switch f {
	case FormatStandard, FormatSixASide, FormatSevenOrEightASide:
		return true
	}
	return false
}

type Field struct {
	ID         uint           `json:"id"`
	Name       string         `json:"name"`
	Sport      Sport          `json:"sport"`
	Format     FootballFormat `json:"format,omitempty"`
	Capacity   int            `json:"capacity"`
	DayPrice   float64        `json:"day_price"`
	NightPrice *float64       `json:"night_price,omitempty"`
	Active     bool           `json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

var (
	sixPattern        = regexp.MustCompile(`\b(6|six)\b`)
	sevenEightPattern = regexp.MustCompile(`\b(7|8|seven|eight|sept|huit)\b`)
)

// InferFootballFormat guesses the format from a display name. It is only a
// default for the creation form; stored fields always carry Format.
func InferFootballFormat(name string) FootballFormat {
	n := strings.ToLower(name)
	switch {
	case sixPattern.MatchString(n):
		return FormatSixASide
	case sevenEightPattern.MatchString(n):
		return FormatSevenOrEightASide
	default:
		return FormatStandard
	}
}

// Normalize fills defaults that depend on the sport.
func (f *Field) Normalize() {
	if f.Sport != SportFootball {
		f.Format = ""
		return
	}
	if f.Format == "" {
		f.Format = InferFootballFormat(f.Name)
	}
}

func (f Field) HasNightPrice() bool {
	return f.NightPrice != nil
}
