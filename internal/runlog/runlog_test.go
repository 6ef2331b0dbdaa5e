package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func f64(v float64) *float64 { return &v }

func TestStore_InsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Entry{
		StartedAt:       1_700_000_000_000_000_000,
		FinishedAt:      1_700_000_002_500_000_000,
		Status:          StatusSucceeded,
		InputPath:       "line1.txt",
		OutputPath:      "line1_corrected.txt",
		Format:          "green",
		DriftSpeedMPS:   2.11 / 60.0,
		DriftBearing:    197,
		ExtraDrift:      6,
		SameDirection:   false,
		MovingT0:        f64(100),
		MovingT1:        f64(200),
		ReferenceT0:     232571.1,
		ReferenceT1:     232566.3,
		Records:         3,
		SkippedLines:    1,
		MinDeltaT:       f64(-232461.5),
		MaxDeltaT:       f64(-232366.3),
		MaxDisplacement: f64(8170.1),
		ParamsJSON:      json.RawMessage(`{"drift_speed":2.11}`),
	}
	require.NoError(t, s.Insert(ctx, e))
	require.NotEmpty(t, e.RunID, "run ID should be generated")

	got, err := s.Get(ctx, e.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2500*time.Millisecond, got.Duration())
}

func TestStore_FailedRunWithoutInterval(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Entry{
		RunID:       "fixed-id",
		Status:      StatusFailed,
		Error:       "malformed record at line 3",
		InputPath:   "in.txt",
		OutputPath:  "out.txt",
		Format:      "nir",
		ReferenceT0: 1,
		ReferenceT1: 2,
	}
	before := time.Now().UnixNano()
	require.NoError(t, s.Insert(ctx, e))

	got, err := s.Get(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "malformed record at line 3", got.Error)
	assert.Nil(t, got.MovingT0)
	assert.Nil(t, got.MaxDeltaT)
	assert.Nil(t, got.ParamsJSON)
	assert.GreaterOrEqual(t, got.StartedAt, before)
	assert.Equal(t, got.StartedAt, got.FinishedAt)
}

func TestStore_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Entry{RunID: "dup", Status: StatusSucceeded, InputPath: "a", OutputPath: "b", Format: "nir"}
	require.NoError(t, s.Insert(ctx, e))
	assert.Error(t, s.Insert(ctx, e))
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Recent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Insert(ctx, &Entry{
			RunID:      id,
			StartedAt:  int64(i+1) * 1000,
			Status:     StatusSucceeded,
			InputPath:  id + ".txt",
			OutputPath: id + ".out",
			Format:     "green",
		}))
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), &Entry{RunID: "keep", Status: StatusSucceeded, InputPath: "a", OutputPath: "b", Format: "nir"}))
	require.NoError(t, s.Close())

	// Schema creation is idempotent and data survives.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	_, err = s2.Get(context.Background(), "keep")
	assert.NoError(t, err)
}
