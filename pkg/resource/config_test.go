package resource_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-resource/pkg/resource"
)

func TestBaseConfig(t *testing.T) {
	t.Parallel()
	cfg := resource.BaseConfig()
	assert.Equal(t, "application/json", cfg.Headers.Get("content-type"))
	assert.Equal(t, "application/json", cfg.Headers.Get("accept"))
	assert.False(t, cfg.Auth)
	assert.Equal(t, "accessToken", cfg.TokenKey)
	assert.Equal(t, "x-access-token", cfg.AuthHeader)
	assert.Equal(t, 0, cfg.Params.Len())
	assert.Empty(t, cfg.URLSuffix)

	// Each call returns a new value
	cfg.Headers.Set("X-Foo", "bar")
	assert.Empty(t, resource.BaseConfig().Headers.Get("X-Foo"))
}

func TestMerge_EmptyOverride(t *testing.T) {
	t.Parallel()
	base := resource.BaseConfig()
	assert.Equal(t, base, resource.Merge(base, resource.NewOverride()))
	assert.True(t, resource.NewOverride().IsEmpty())
}

func TestMerge(t *testing.T) {
	t.Parallel()
	base := resource.BaseConfig()
	params := resource.NewParams(resource.Param("page", 2))

	out := resource.Merge(base, resource.NewOverride(
		resource.WithHeader("accept", "text/csv"),
		resource.WithHeader("X-Request-Id", "123"),
		resource.WithAuth(true),
		resource.WithTokenKey("myToken"),
		resource.WithAuthHeader("Authorization"),
		resource.WithParams(params),
		resource.WithURLSuffix("/mock"),
		resource.WithZeroParams(true),
	))

	assert.Equal(t, http.Header{
		"Content-Type": []string{"application/json"},
		"Accept":       []string{"text/csv"},
		"X-Request-Id": []string{"123"},
	}, out.Headers)
	assert.True(t, out.Auth)
	assert.Equal(t, "myToken", out.TokenKey)
	assert.Equal(t, "Authorization", out.AuthHeader)
	assert.Equal(t, params, out.Params)
	assert.Equal(t, "/mock", out.URLSuffix)
	assert.True(t, out.IncludeZeroParams)

	// Base is not modified
	assert.Equal(t, resource.BaseConfig(), base)
}

func TestMerge_NoSharedState(t *testing.T) {
	t.Parallel()
	base := resource.BaseConfig()
	override := resource.NewOverride(resource.WithHeaders(http.Header{"X-A": []string{"1"}}))

	first := resource.Merge(base, override)
	second := resource.Merge(base, resource.NewOverride(resource.WithHeader("X-A", "2"), resource.WithURLSuffix("/other")))

	// The first result is unaffected by the second merge
	assert.Equal(t, "1", first.Headers.Get("X-A"))
	assert.Empty(t, first.URLSuffix)
	assert.Equal(t, "2", second.Headers.Get("X-A"))
	assert.Equal(t, "/other", second.URLSuffix)

	// Modification of the result doesn't affect inputs
	first.Headers.Set("Content-Type", "text/plain")
	assert.Equal(t, "application/json", base.Headers.Get("Content-Type"))
	assert.Equal(t, "1", resource.Merge(base, override).Headers.Get("X-A"))
	assert.Equal(t, "application/json", resource.Merge(base, override).Headers.Get("Content-Type"))
}

func TestMerge_ExplicitZeroValues(t *testing.T) {
	t.Parallel()
	base := resource.BaseConfig()
	base.Auth = true
	base.URLSuffix = "/base"

	out := resource.Merge(base, resource.NewOverride(resource.WithAuth(false), resource.WithURLSuffix("")))
	assert.False(t, out.Auth)
	assert.Empty(t, out.URLSuffix)
}

func TestOverride_With(t *testing.T) {
	t.Parallel()
	a := resource.NewOverride(resource.WithHeader("X-A", "1"))
	b := a.With(resource.WithHeader("X-B", "2"), resource.WithHeader("X-A", "3"))

	base := resource.BaseConfig()
	assert.Equal(t, "1", resource.Merge(base, a).Headers.Get("X-A"))
	assert.Empty(t, resource.Merge(base, a).Headers.Get("X-B"))
	assert.Equal(t, "3", resource.Merge(base, b).Headers.Get("X-A"))
	assert.Equal(t, "2", resource.Merge(base, b).Headers.Get("X-B"))
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()
	cfg := resource.Config{}
	clone := cfg.Clone()
	assert.NotNil(t, clone.Headers)
	clone.Headers.Set("X-A", "1")
	assert.Nil(t, cfg.Headers)
}

func TestMerge_NonCanonicalBaseHeader(t *testing.T) {
	t.Parallel()
	base := resource.BaseConfig()
	base.Headers["x-api-key"] = []string{"base"}

	out := resource.Merge(base, resource.NewOverride(resource.WithHeader("x-api-key", "override")))
	assert.Equal(t, http.Header{
		"Content-Type": []string{"application/json"},
		"Accept":       []string{"application/json"},
		"X-Api-Key":    []string{"override"},
	}, out.Headers)

	// Base keeps its own key
	assert.Equal(t, []string{"base"}, base.Headers["x-api-key"])
}
