package model

import (
	"fmt"
	"strings"
)

const (
	SessionTypeRace              = "R"
	SessionTypeSprint            = "S"
	SessionTypeQualifying        = "Q"
	SessionTypeSprintQualifying  = "SQ"
	SessionTypeSprintShootout    = "SS"
	QualiSegment1                = "Q1"
	QualiSegment2                = "Q2"
	QualiSegment3                = "Q3"
	rainfallRainingThreshold     = 0.5
	RainStateRaining             = "RAINING"
	RainStateDry                 = "DRY"
	DRSActiveThreshold           = 10
	UnknownCompound              = -1
	defaultEventNameReplaceSpace = "_"
)

var QualiSegments = []string{QualiSegment1, QualiSegment2, QualiSegment3}

// SessionIdentity identifies a recorded session.
// Name is the human readable event/session name, for example
// "2024 Bahrain Grand Prix - Race".
type SessionIdentity struct {
	Year  int    `json:"year"`
	Round int    `json:"round"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

func (s SessionIdentity) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%d Round %d %s", s.Year, s.Round, s.Type)
}

// EventKey is the session name with blanks replaced, used to build cache keys.
func (s SessionIdentity) EventKey() string {
	return strings.ReplaceAll(s.String(), " ", defaultEventNameReplaceSpace)
}

// RainState derives the categorical rain state from an interpolated
// rainfall value.
func RainState(rainfall float64) string {
	if rainfall >= rainfallRainingThreshold {
		return RainStateRaining
	}
	return RainStateDry
}

var compoundCodes = map[string]int{
	"SOFT":         0,
	"MEDIUM":       1,
	"HARD":         2,
	"INTERMEDIATE": 3,
	"WET":          4,
}

// CompoundCode maps a tire compound name to its numeric code.
// Unknown names yield UnknownCompound.
func CompoundCode(name string) int {
	if code, ok := compoundCodes[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return code
	}
	return UnknownCompound
}
