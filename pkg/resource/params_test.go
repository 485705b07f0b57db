package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-resource/pkg/resource"
)

func TestParams(t *testing.T) {
	t.Parallel()
	type Status string

	p := resource.NewParams(
		resource.Param("id", 123),
		resource.Param("status", Status("active")),
		resource.ParamList("tags", "a", "b"),
		resource.Param("ratio", float32(0.1)),
	)
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []string{"id", "status", "tags", "ratio"}, p.Keys())
	assert.True(t, p.Has("id"))
	assert.False(t, p.Has("missing"))

	v, found := p.Get("id")
	assert.True(t, found)
	assert.Equal(t, int64(123), v)

	v, _ = p.Get("status")
	assert.Equal(t, "active", v)

	v, _ = p.Get("tags")
	assert.Equal(t, []any{"a", "b"}, v)

	assert.Equal(t, "?id=123&status=active&tags=a&tags=b&ratio=0.1", resource.EncodeQuery(p))
}

func TestParams_With_Immutable(t *testing.T) {
	t.Parallel()
	a := resource.NewParams(resource.Param("id", 1))
	b := a.With(resource.Param("id", 2), resource.Param("name", "x"))

	v, _ := a.Get("id")
	assert.Equal(t, int64(1), v)
	assert.Equal(t, []string{"id"}, a.Keys())

	v, _ = b.Get("id")
	assert.Equal(t, int64(2), v)
	assert.Equal(t, []string{"id", "name"}, b.Keys())
}

func TestParams_Zero(t *testing.T) {
	t.Parallel()
	var p resource.Params
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Keys())
	assert.Empty(t, p.Entries())
	_, found := p.Get("id")
	assert.False(t, found)
	assert.Equal(t, []string{"id"}, p.With(resource.Param("id", 1)).Keys())
}

func TestParamsFromMap(t *testing.T) {
	t.Parallel()
	p := resource.ParamsFromMap(map[string]any{
		"limit":    10,
		"keywords": []any{"android", "iphone"},
		"ids":      []int{1, 2},
		"nested":   map[string]any{"a": 1},
		"empty":    nil,
	})
	assert.Equal(t, []string{"empty", "ids", "keywords", "limit", "nested"}, p.Keys())

	v, _ := p.Get("ids")
	assert.Equal(t, []any{int64(1), int64(2)}, v)

	v, _ = p.Get("nested")
	assert.IsType(t, "", v)

	assert.Equal(t, "?ids=1&ids=2&keywords=android&keywords=iphone&limit=10", resource.EncodeQuery(p))
}

func TestEntry(t *testing.T) {
	t.Parallel()
	e := resource.Param("id", int32(5))
	assert.Equal(t, "id", e.Key())
	assert.Equal(t, int64(5), e.Value())
}
