package drift

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/icedrift/internal/fsutil"
	"github.com/banshee-data/icedrift/internal/monitoring"
	"github.com/banshee-data/icedrift/internal/pointcloud"
)

func init() {
	monitoring.SetOutput(nil)
}

type recordingObserver struct {
	total int
	in    []pointcloud.Point
	out   []pointcloud.Point
}

func (r *recordingObserver) Begin(total int) { r.total = total }

func (r *recordingObserver) Observe(in, out pointcloud.Point, _ Correction) {
	r.in = append(r.in, in)
	r.out = append(r.out, out)
}

func greenFormat(t *testing.T) pointcloud.Format {
	t.Helper()
	f, err := pointcloud.FormatByName(pointcloud.FormatGreen)
	require.NoError(t, err)
	return f
}

func newTestCorrector(t *testing.T, fsys fsutil.FileSystem, observers ...Observer) *Corrector {
	t.Helper()
	c, err := NewCorrector(fsys, Options{
		Format:        greenFormat(t),
		Reference:     PassInterval{T0: 232566.3, T1: 232561.5},
		SameDirection: false,
		Vector:        surveyVector(),
		Observers:     observers,
	})
	require.NoError(t, err)
	return c
}

const exampleInput = `# Exported points
1 100 512000 7450000 -0.4
2 150 512010 7450020 0.1
1 200 512020 7450040 1.25
`

func TestCorrector_Run(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/data/in.txt", []byte(exampleInput), 0644))

	obs := &recordingObserver{}
	c := newTestCorrector(t, mfs, obs)

	sum, err := c.Run(context.Background(), "/data/in.txt", "/data/out.txt")
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, PassInterval{T0: 100, T1: 200}, sum.Moving)
	assert.InDelta(t, -232461.5, sum.MinDeltaT, 1e-6)
	assert.InDelta(t, -232366.3, sum.MaxDeltaT, 1e-6)
	assert.Greater(t, sum.MaxDisplacement, sum.MinDisplacement)

	data, err := mfs.ReadFile("/data/out.txt")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	// Parse the output back and compare against the transform directly.
	f := greenFormat(t)
	r := pointcloud.NewReader(strings.NewReader(string(data)), f)
	for i, want := range []struct {
		c       int
		t, x, y float64
		z       float64
	}{
		{1, -232361.5, 509611.64592641295, 7442188.045824541, -0.4},
		{2, -232263.9, 509622.1353371552, 7442209.646614948, 0.1},
		{1, -232166.3, 509632.62474789744, 7442231.247405356, 1.25},
	} {
		p, err := r.Next()
		require.NoError(t, err, "line %d", i+1)
		assert.Equal(t, want.c, p.C)
		assert.InDelta(t, want.t, p.T, 1e-6)
		assert.InDelta(t, want.x, p.X, 1e-6)
		assert.InDelta(t, want.y, p.Y, 1e-6)
		assert.Equal(t, want.z, p.Z)
	}

	assert.Equal(t, 3, obs.total)
	require.Len(t, obs.out, 3)
	assert.Equal(t, 150.0, obs.in[1].T)
	assert.False(t, mfs.Exists("/data/out.txt"+fsutil.PartialSuffix))
}

func TestCorrector_MalformedLineLeavesNoOutput(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	input := "1 100 1 2 3\n2 150 1 2 3\n3 175 1 2\n4 200 1 2 3\n"
	require.NoError(t, mfs.WriteFile("/in.txt", []byte(input), 0644))
	require.NoError(t, mfs.WriteFile("/out.txt", []byte("previous run\n"), 0644))

	c := newTestCorrector(t, mfs)
	sum, err := c.Run(context.Background(), "/in.txt", "/out.txt")

	var mre *pointcloud.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 3, mre.Line)
	assert.Equal(t, 0, sum.Records, "pass one rejects the file before any output")

	data, _ := mfs.ReadFile("/out.txt")
	assert.Equal(t, "previous run\n", string(data), "existing output must be untouched")
	assert.False(t, mfs.Exists("/out.txt"+fsutil.PartialSuffix))
}

func TestCorrector_EmptyInput(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in.txt", []byte("# only a header\n\n"), 0644))

	c := newTestCorrector(t, mfs)
	sum, err := c.Run(context.Background(), "/in.txt", "/out.txt")

	var empty *EmptyInputError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "/in.txt", empty.Source)
	assert.Equal(t, 2, sum.Skipped)
	assert.False(t, mfs.Exists("/out.txt"))
}

func TestCorrector_SingleRecord(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in.txt", []byte("1 100 1 2 3\n"), 0644))

	c := newTestCorrector(t, mfs)
	_, err := c.Run(context.Background(), "/in.txt", "/out.txt")

	var deg *DegenerateIntervalError
	require.ErrorAs(t, err, &deg)
	assert.Equal(t, PassMoving, deg.Pass)
	assert.Equal(t, 1, deg.Records)
	assert.False(t, mfs.Exists("/out.txt"))
}

func TestCorrector_MissingInput(t *testing.T) {
	c := newTestCorrector(t, fsutil.NewMemoryFileSystem())
	_, err := c.Run(context.Background(), "/nope.txt", "/out.txt")
	assert.ErrorContains(t, err, "open input")
}

func TestCorrector_Cancelled(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in.txt", []byte(exampleInput), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCorrector(t, mfs)
	_, err := c.Run(ctx, "/in.txt", "/out.txt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, mfs.Exists("/out.txt"))
}

func TestCorrector_ScanInterval(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in.txt", []byte(exampleInput), 0644))

	c := newTestCorrector(t, mfs)
	p, n, skipped, err := c.ScanInterval(context.Background(), "/in.txt")
	require.NoError(t, err)
	assert.Equal(t, PassInterval{T0: 100, T1: 200}, p)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, skipped)
}

func TestNewCorrector_Validation(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	good := Options{Format: greenFormat(t), Reference: PassInterval{T0: 1, T1: 2}}

	_, err := NewCorrector(nil, good)
	assert.Error(t, err)

	noFormat := good
	noFormat.Format = nil
	_, err = NewCorrector(mfs, noFormat)
	assert.ErrorContains(t, err, "record format")

	flat := good
	flat.Reference = PassInterval{T0: 3, T1: 3}
	_, err = NewCorrector(mfs, flat)
	assert.ErrorAs(t, err, new(*DegenerateIntervalError))

	_, err = NewCorrector(mfs, good)
	assert.NoError(t, err)
}

func TestCorrector_NIRFormatOrderPreserved(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	// Timestamps deliberately out of order inside the pass.
	input := "0 0 0 5\n48 0 0 6\n16 0 0 7\n64 0 0 8\n"
	require.NoError(t, mfs.WriteFile("/in.txt", []byte(input), 0644))

	nir, err := pointcloud.FormatByName(pointcloud.FormatNIR)
	require.NoError(t, err)
	c, err := NewCorrector(mfs, Options{
		Format:        nir,
		Reference:     PassInterval{T0: 0, T1: 64},
		SameDirection: true,
		Vector:        NewVector(90, 1, 0),
	})
	require.NoError(t, err)

	sum, err := c.Run(context.Background(), "/in.txt", "/out.txt")
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Records)

	// Reference pass equals the moving pass, so nothing moves.
	data, err := mfs.ReadFile("/out.txt")
	require.NoError(t, err)
	assert.Equal(t, input, string(data))
}
