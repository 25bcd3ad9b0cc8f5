//nolint:funlen // ok for tests
package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mpapenbr/racetelemetry/pkg/model"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleArtifact() *model.RaceTelemetryArtifact {
	return &model.RaceTelemetryArtifact{
		Frames: []model.Frame{
			{
				T:   0,
				Lap: 1,
				Drivers: []model.DriverState{
					{Code: "VER", Position: 1, X: 1.5, Y: -2.25, Dist: 100, Lap: 1, RelDist: 0.1, Tyre: 0, Speed: 280.5, Gear: 7, DRS: 12, Throttle: 100, Brake: 0},
					{Code: "HAM", Position: 2, X: 1, Y: -2, Dist: 90, Lap: 1, RelDist: 0.09, Tyre: 1, Speed: 279, Gear: 7, DRS: 8, Throttle: 99.5, Brake: 0},
				},
				Weather: &model.WeatherSnapshot{
					TrackTemp: ptr(35.2),
					AirTemp:   ptr(24.1),
					Rainfall:  ptr(0.0),
					RainState: model.RainStateDry,
				},
			},
			{T: 0.04, Lap: 1, Drivers: []model.DriverState{{Code: "VER", Position: 1}}},
		},
		TrackStatuses: []model.TrackStatusSegment{
			{Status: "1", Start: 0, End: ptr(10.5)},
			{Status: "4", Start: 10.5},
		},
		TotalLaps:    57,
		DriverColors: map[string]model.RGB{"VER": {54, 113, 198}, "HAM": {39, 244, 210}},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := sampleArtifact()
	data, err := Encode("race", "run-1", in)
	require.NoError(t, err)

	var out model.RaceTelemetryArtifact
	meta, err := Decode(data, "race", &out)
	require.NoError(t, err)
	assert.Equal(t, "race", meta.Schema)
	assert.Equal(t, CodecVersion, meta.Version)
	assert.Equal(t, "run-1", meta.RunID)
	assert.WithinDuration(t, time.Now(), meta.Created, time.Minute)
	if diff := cmp.Diff(in, &out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	m, err := ReadMeta(data)
	require.NoError(t, err)
	assert.Equal(t, meta.RunID, m.RunID)
}

func TestCodecQualiRoundTrip(t *testing.T) {
	in := &model.QualiTelemetryArtifact{
		Results: []model.QualiResult{
			{Code: "LEC", Position: 1, Color: model.RGB{232, 0, 45}, Q1: ptr(90.1), Q2: ptr(89.5), Q3: ptr(88.9)},
			{Code: "SAR", Position: 20, Color: model.RGB{100, 196, 255}, Q1: ptr(92.3)},
		},
		Telemetry: map[string]map[string]model.SegmentTelemetry{
			"LEC": {
				"Q1": {
					Frames: []model.LapFrame{
						{T: 0, Telemetry: model.LapTelemetry{Speed: 250.1, Gear: 7, DRS: 12}},
						{T: 88.9, Telemetry: model.LapTelemetry{Speed: 270, Gear: 8}},
					},
					TrackStatuses: []model.TrackStatusSegment{{Status: "1", Start: -100}},
					DRSZones:      []model.DRSZone{{Start: 100, End: ptr(700.0)}, {Start: 4000}},
					MaxSpeed:      320,
					MinSpeed:      80,
				},
				"Q2": {},
			},
		},
		MaxSpeed: 320,
		MinSpeed: 80,
	}
	data, err := Encode("quali", "run-2", in)
	require.NoError(t, err)
	var out model.QualiTelemetryArtifact
	_, err = Decode(data, "quali", &out)
	require.NoError(t, err)
	if diff := cmp.Diff(in, &out, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func rawEnvelope(t *testing.T, env envelope) []byte {
	t.Helper()
	raw, err := msgpack.Marshal(&env)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(raw, nil)
}

func TestCodecRejects(t *testing.T) {
	valid, err := Encode("race", "x", sampleArtifact())
	require.NoError(t, err)

	var payload bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&payload).Encode(map[string]int{"a": 1}))

	tests := []struct {
		name   string
		data   []byte
		schema string
		want   error
	}{
		{name: "schema", data: valid, schema: "quali", want: ErrSchemaMismatch},
		{name: "garbage", data: []byte("not a blob"), schema: "race", want: ErrCorrupt},
		{name: "version", data: rawEnvelope(t, envelope{
			Magic:   codecMagic,
			Meta:    Meta{Schema: "race", Version: CodecVersion + 1},
			Payload: payload.Bytes(),
		}), schema: "race", want: ErrVersionMismatch},
		{name: "magic", data: rawEnvelope(t, envelope{
			Magic:   "XXXX",
			Meta:    Meta{Schema: "race", Version: CodecVersion},
			Payload: payload.Bytes(),
		}), schema: "race", want: ErrBadMagic},
		{name: "digest", data: rawEnvelope(t, envelope{
			Magic:   codecMagic,
			Meta:    Meta{Schema: "race", Version: CodecVersion},
			Digest:  "00",
			Payload: payload.Bytes(),
		}), schema: "race", want: ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out model.RaceTelemetryArtifact
			_, err := Decode(tt.data, tt.schema, &out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestKey(t *testing.T) {
	id := model.SessionIdentity{Name: "2024 Bahrain Grand Prix - Race", Type: model.SessionTypeRace}
	assert.Equal(t, "2024_Bahrain_Grand_Prix_-_Race_race_telemetry", Key(id, RaceSuffix(id.Type)))
	assert.Equal(t, SuffixSprint, RaceSuffix(model.SessionTypeSprint))
	assert.Equal(t, SuffixQuali, QualiSuffix(model.SessionTypeQualifying))
	assert.Equal(t, SuffixSprintQuali, QualiSuffix(model.SessionTypeSprintQualifying))
}

// mapStore is a minimal Store used to observe layer behavior
type mapStore struct {
	data    map[string][]byte
	loadErr error
	saveErr error
	loads   int
}

func (m *mapStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	d, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return d, nil
}

func (m *mapStore) Save(ctx context.Context, key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = data
	return nil
}

func (m *mapStore) Close() error { return nil }

func TestLayer(t *testing.T) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		store := &mapStore{data: map[string][]byte{}}
		l := NewLayer[model.RaceTelemetryArtifact](store, "race")
		_, ok := l.Get(ctx, "k", false)
		assert.False(t, ok)
		require.NoError(t, l.Put(ctx, "k", "run", sampleArtifact()))
		got, ok := l.Get(ctx, "k", false)
		require.True(t, ok)
		assert.Equal(t, 57, got.TotalLaps)
	})

	t.Run("refresh bypasses store", func(t *testing.T) {
		store := &mapStore{data: map[string][]byte{}}
		l := NewLayer[model.RaceTelemetryArtifact](store, "race")
		require.NoError(t, l.Put(ctx, "k", "run", sampleArtifact()))
		_, ok := l.Get(ctx, "k", true)
		assert.False(t, ok)
		assert.Equal(t, 0, store.loads)
	})

	t.Run("read failure is a miss", func(t *testing.T) {
		store := &mapStore{loadErr: &IOError{Op: "load", Key: "k", Err: errors.New("disk")}}
		l := NewLayer[model.RaceTelemetryArtifact](store, "race")
		_, ok := l.Get(ctx, "k", false)
		assert.False(t, ok)
	})

	t.Run("undecodable is a miss", func(t *testing.T) {
		store := &mapStore{data: map[string][]byte{"k": []byte("garbage")}}
		l := NewLayer[model.RaceTelemetryArtifact](store, "race")
		_, ok := l.Get(ctx, "k", false)
		assert.False(t, ok)
	})

	t.Run("other schema is a miss", func(t *testing.T) {
		store := &mapStore{data: map[string][]byte{}}
		require.NoError(t, NewLayer[model.RaceTelemetryArtifact](store, "race").
			Put(ctx, "k", "run", sampleArtifact()))
		_, ok := NewLayer[model.QualiTelemetryArtifact](store, "quali").Get(ctx, "k", false)
		assert.False(t, ok)
	})

	t.Run("write failure reported", func(t *testing.T) {
		store := &mapStore{saveErr: &IOError{Op: "save", Key: "k", Err: errors.New("full")}}
		l := NewLayer[model.RaceTelemetryArtifact](store, "race")
		var ioErr *IOError
		assert.ErrorAs(t, l.Put(ctx, "k", "run", sampleArtifact()), &ioErr)
	})

	t.Run("nil store disables caching", func(t *testing.T) {
		l := NewLayer[model.RaceTelemetryArtifact](nil, "race")
		assert.NoError(t, l.Put(ctx, "k", "run", sampleArtifact()))
		_, ok := l.Get(ctx, "k", false)
		assert.False(t, ok)
	})
}

func TestCheckProducer(t *testing.T) {
	l := NewLayer[model.RaceTelemetryArtifact](nil, "race", WithMinProducer("v0.2.0"))
	tests := []struct {
		producer string
		wantErr  bool
	}{
		{"v0.1.9", true},
		{"0.1.0", true},
		{"v0.2.0", false},
		{"v1.0.0", false},
		{"dev", false},
	}
	for _, tt := range tests {
		t.Run(tt.producer, func(t *testing.T) {
			err := l.checkProducer(&Meta{Producer: tt.producer})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutdated)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
