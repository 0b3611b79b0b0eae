package merge_test

import (
	"cmp"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsm/extsort/codec"
	"github.com/bsm/extsort/merge"
	"github.com/bsm/extsort/tempfile"
)

func writeRun(t *testing.T, wd *tempfile.Workdir, cdc codec.Codec[int], values []int) string {
	t.Helper()
	rw, err := wd.NewRun(0)
	require.NoError(t, err)
	for _, v := range values {
		payload, err := cdc.Encode(v)
		require.NoError(t, err)
		require.NoError(t, rw.WriteFrame(payload))
	}
	require.NoError(t, rw.Close())
	return rw.Path()
}

func TestMergerProducesAscendingOrderAcrossRuns(t *testing.T) {
	wd, err := tempfile.NewWorkdir(t.TempDir(), "merge-", nil)
	require.NoError(t, err)
	defer wd.Close()

	cdc := codec.NewMsgpackCodec[int]()
	p1 := writeRun(t, wd, cdc, []int{1, 4, 7})
	p2 := writeRun(t, wd, cdc, []int{2, 3, 9})
	p3 := writeRun(t, wd, cdc, []int{0, 5, 6, 8})

	m, err := merge.New([]string{p1, p2, p3}, cmp.Compare[int], cdc, 0, nil)
	require.NoError(t, err)
	defer m.Close()

	var got []int
	for {
		v, err := m.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestMergerTiebreaksOnRunIndexForEqualKeys(t *testing.T) {
	wd, err := tempfile.NewWorkdir(t.TempDir(), "tie-", nil)
	require.NoError(t, err)
	defer wd.Close()

	type kv struct {
		Run int
		Seq int
	}
	cdc := codec.NewMsgpackCodec[kv]()
	cmpFn := func(a, b kv) int { return 0 }

	rw0, err := wd.NewRun(0)
	require.NoError(t, err)
	payload, _ := cdc.Encode(kv{Run: 0, Seq: 1})
	require.NoError(t, rw0.WriteFrame(payload))
	require.NoError(t, rw0.Close())

	rw1, err := wd.NewRun(0)
	require.NoError(t, err)
	payload, _ = cdc.Encode(kv{Run: 1, Seq: 1})
	require.NoError(t, rw1.WriteFrame(payload))
	require.NoError(t, rw1.Close())

	m, err := merge.New([]string{rw0.Path(), rw1.Path()}, cmpFn, cdc, 0, nil)
	require.NoError(t, err)
	defer m.Close()

	first, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.Run, "equal keys must come out in run-index order")

	second, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Run)
}

func TestMergerEmptyRunsYieldEOF(t *testing.T) {
	wd, err := tempfile.NewWorkdir(t.TempDir(), "empty-", nil)
	require.NoError(t, err)
	defer wd.Close()

	cdc := codec.NewMsgpackCodec[int]()
	p, err := wd.NewRun(0)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	m, err := merge.New([]string{p.Path()}, cmp.Compare[int], cdc, 0, nil)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Next()
	assert.Equal(t, io.EOF, err)
}

func TestMergerSurfacesDecodeErrorThenTerminates(t *testing.T) {
	wd, err := tempfile.NewWorkdir(t.TempDir(), "bad-", nil)
	require.NoError(t, err)
	defer wd.Close()

	cdc := codec.NewMsgpackCodec[int]()
	rw, err := wd.NewRun(0)
	require.NoError(t, err)
	good, _ := cdc.Encode(1)
	require.NoError(t, rw.WriteFrame(good))
	// 0xd3 tags a following int64, but only one byte is supplied: truncated.
	require.NoError(t, rw.WriteFrame([]byte{0xd3, 0x01}))
	require.NoError(t, rw.Close())

	m, err := merge.New([]string{rw.Path()}, cmp.Compare[int], cdc, 0, nil)
	require.NoError(t, err)
	defer m.Close()

	v, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = m.Next()
	require.Error(t, err)

	_, err = m.Next()
	assert.Equal(t, io.EOF, err, "merger must be terminally exhausted after surfacing its one error")
}
