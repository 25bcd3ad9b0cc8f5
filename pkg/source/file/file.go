// Package file provides a session source backed by a recorded session dump.
//
// The dump is a JSON document (optionally gzip or zstd compressed) with the
// keys identity, competitors, laps, trackStatus, weather and qualifying.
// If the file wraps multiple sessions a JSON path selects the one to use.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry/log"
	"github.com/mpapenbr/racetelemetry/pkg/model"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

var ErrSessionNotFound = errors.New("session not found in file")

type (
	Option func(*config)
	config struct {
		sessionPath string
	}

	qualifying struct {
		Segments map[string][]model.QualiLap `json:"segments"`
		Results  []model.QualiClassification `json:"results"`
	}
	dump struct {
		Identity    model.SessionIdentity      `json:"identity"`
		Competitors []model.Competitor         `json:"competitors"`
		Laps        map[string][]model.LapData `json:"laps"`
		TrackStatus []model.StatusEvent        `json:"trackStatus"`
		Weather     *model.WeatherTable        `json:"weather"`
		Qualifying  *qualifying                `json:"qualifying"`
	}

	Source struct {
		data *dump
		log  *log.Logger
	}
)

// WithSessionPath selects the session document by JSON path, for example
// "$.sessions[1]". The default uses the whole document.
func WithSessionPath(path string) Option {
	return func(c *config) {
		c.sessionPath = path
	}
}

// Load reads a session dump from file.
func Load(file string, opts ...Option) (*Source, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if raw, err = decompress(file, raw); err != nil {
		return nil, fmt.Errorf("decompress %s: %w", file, err)
	}
	return Parse(raw, opts...)
}

// Parse reads a session dump from uncompressed JSON data.
func Parse(data []byte, opts ...Option) (*Source, error) {
	cfg := &config{sessionPath: "$"}
	for _, opt := range opts {
		opt(cfg)
	}
	d, err := selectSession(data, cfg.sessionPath)
	if err != nil {
		return nil, err
	}
	ret := &Source{
		data: d,
		log:  log.Default().Named("source.file"),
	}
	ret.normalize()
	return ret, nil
}

func decompress(file string, raw []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(file, ".gz"):
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.HasSuffix(file, ".zst"):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(raw, nil)
	default:
		return raw, nil
	}
}

func selectSession(data []byte, sessionPath string) (*dump, error) {
	var ret dump
	if sessionPath == "" || sessionPath == "$" {
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, err
		}
		return &ret, nil
	}
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	path, err := jp.ParseString(sessionPath)
	if err != nil {
		return nil, err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionPath)
	}
	if err := json.Unmarshal([]byte(oj.JSON(res[0])), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// normalize sorts laps by lap number and drops competitors without a code.
func (s *Source) normalize() {
	s.data.Competitors = lo.Filter(s.data.Competitors,
		func(c model.Competitor, _ int) bool {
			if c.Code == "" {
				s.log.Warn("dropping competitor without code",
					log.String("number", c.Number))
				return false
			}
			return true
		})
	for code := range s.data.Laps {
		slices.SortStableFunc(s.data.Laps[code], func(a, b model.LapData) int {
			return a.LapNumber - b.LapNumber
		})
	}
}

func (s *Source) Identity() model.SessionIdentity {
	return s.data.Identity
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) Competitors(ctx context.Context) (
	[]model.Competitor, error,
) {
	return slices.Clone(s.data.Competitors), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) Laps(ctx context.Context, code string) (
	[]model.LapData, error,
) {
	laps, ok := s.data.Laps[code]
	if !ok {
		if slices.ContainsFunc(s.data.Competitors, func(c model.Competitor) bool {
			return c.Code == code
		}) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownCompetitor, code)
	}
	return laps, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) TrackStatus(ctx context.Context) (
	[]model.StatusEvent, error,
) {
	return slices.Clone(s.data.TrackStatus), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) Weather(ctx context.Context) (
	*model.WeatherTable, error,
) {
	return s.data.Weather, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) QualifyingSegments(ctx context.Context) (
	map[string][]model.QualiLap, error,
) {
	if s.data.Qualifying == nil {
		return nil, source.ErrNoQualifying
	}
	return s.data.Qualifying.Segments, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Source) QualifyingResults(ctx context.Context) (
	[]model.QualiClassification, error,
) {
	if s.data.Qualifying == nil {
		return nil, source.ErrNoQualifying
	}
	return slices.Clone(s.data.Qualifying.Results), nil
}
