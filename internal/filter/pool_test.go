package filter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

func TestExpressionPoolMatch(t *testing.T) {
	pool, err := NewExpressionPool()
	require.NoError(t, err)

	summary := map[string]any{
		"tag":       "SPRT",
		"schema":    "SpriteSheet",
		"dialect":   "standard",
		"version":   int64(1),
		"records":   int64(12),
		"texture":   "atlas.png",
		"languages": int64(0),
		"children":  int64(0),
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{`tag == "SPRT"`, true},
		{`records > 10 && texture.endsWith(".png")`, true},
		{`dialect == "variant"`, false},
		{`schema in ["Font", "Animation"]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := pool.Match(tt.expr, summary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpressionPoolNarrowIntegers(t *testing.T) {
	pool, err := NewExpressionPool()
	require.NoError(t, err)

	frame := map[string]any{
		"tag":    datfile.TagTextGroup,
		"name":   "TextGroup",
		"offset": int64(54),
		"size":   int32(0),
		"depth":  1,
		"known":  true,
	}
	ok, err := pool.Match(`depth == 1 && size == 0 && tag == "TXGP"`, frame)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpressionPoolTagFunctions(t *testing.T) {
	pool, err := NewExpressionPool()
	require.NoError(t, err)

	ok, err := pool.Match(`tagValue("KA3D") == 0x4B413344`, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pool.Match(`isTag("TXGP") && !isTag("TOOLONG")`, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = pool.Match(`tagValue("XY") == 0`, nil)
	assert.Error(t, err)
}

func TestExpressionPoolRejects(t *testing.T) {
	pool, err := NewExpressionPool()
	require.NoError(t, err)

	_, err = pool.GetExpression(`records +`)
	assert.Error(t, err, "syntax error")

	_, err = pool.GetExpression(`unknown_var == 1`)
	assert.Error(t, err, "undeclared variable")

	_, err = pool.GetExpression(`records + 1`)
	assert.Error(t, err, "non-bool result")

	_, err = pool.Match(`records > 1`, map[string]any{})
	assert.Error(t, err, "unbound variable at evaluation")

	_, err = NewExpressionPoolWithEnv(nil)
	assert.Error(t, err)
}

func TestExpressionPoolCaches(t *testing.T) {
	pool, err := NewExpressionPool()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Match(`known`, map[string]any{"known": true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	first, err := pool.GetExpression(`known`)
	require.NoError(t, err)
	second, err := pool.GetExpression(`known`)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, pool.Len())
}
