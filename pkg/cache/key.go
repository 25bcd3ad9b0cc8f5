package cache

import (
	"fmt"

	"github.com/mpapenbr/racetelemetry/pkg/model"
)

const (
	SuffixRace        = "race"
	SuffixSprint      = "sprint"
	SuffixQuali       = "quali"
	SuffixSprintQuali = "sprintquali"
)

// Key builds the cache key of an artifact, for example
// "2024_Bahrain_Grand_Prix_-_Race_race_telemetry".
func Key(id model.SessionIdentity, suffix string) string {
	return fmt.Sprintf("%s_%s_telemetry", id.EventKey(), suffix)
}

// RaceSuffix returns the key suffix for race like sessions.
func RaceSuffix(sessionType string) string {
	if sessionType == model.SessionTypeSprint {
		return SuffixSprint
	}
	return SuffixRace
}

// QualiSuffix returns the key suffix for qualifying like sessions.
func QualiSuffix(sessionType string) string {
	if sessionType == model.SessionTypeSprintQualifying {
		return SuffixSprintQuali
	}
	return SuffixQuali
}
