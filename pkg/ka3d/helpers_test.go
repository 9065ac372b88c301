package ka3d

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/testutil"
)

var segmentOpts = cmp.Options{
	testutil.OrderedMap[string, Sprite](),
	testutil.OrderedMap[rune, Character](),
	testutil.OrderedMap[string, []Layer](),
	testutil.OrderedMap[string, AnimationClip](),
	testutil.OrderedMap[string, AnimationFrame](),
	cmpopts.EquateEmpty(),
}

// encode writes seg into a fresh container.
func encode(t *testing.T, seg Segment, d datfile.Dialect) []byte {
	t.Helper()
	buf := datfile.NewBuffer(nil)
	w, err := datfile.NewWriter(buf, d)
	require.NoError(t, err)
	require.NoError(t, Encode(w, seg))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func reader(t *testing.T, data []byte, opts ...datfile.ReaderOption) *datfile.Reader {
	t.Helper()
	r, err := datfile.NewReader(bytes.NewReader(data), opts...)
	require.NoError(t, err)
	return r
}

// decode runs the dispatcher over data and closes the reader.
func decode(t *testing.T, data []byte, opts ...datfile.ReaderOption) (Segment, error) {
	t.Helper()
	r := reader(t, data, opts...)
	seg, err := Decode(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return seg, err
}

// roundTrip checks that seg survives encode then decode unchanged and that
// re-encoding the decoded value reproduces the bytes.
func roundTrip(t *testing.T, seg Segment, d datfile.Dialect) []byte {
	t.Helper()
	data := encode(t, seg, d)
	got, err := decode(t, data, datfile.WithCheckBounds(true))
	require.NoError(t, err)
	if diff := cmp.Diff(seg, got, segmentOpts); diff != "" {
		t.Fatalf("decoded segment differs (-want +got):\n%s", diff)
	}
	require.Equal(t, data, encode(t, got, d), "re-encoding is byte exact")
	return data
}
