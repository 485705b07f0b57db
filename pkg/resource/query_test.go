package resource_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-resource/pkg/resource"
)

func TestEncodeQuery(t *testing.T) {
	t.Parallel()
	params := resource.NewParams(
		resource.Param("limit", 10),
		resource.Param("pageNumber", 1),
		resource.ParamList("keywords", "android", "iphone"),
		resource.Param("ignore", ""),
		resource.ParamList[string]("list"),
	)
	assert.Equal(t, "?limit=10&pageNumber=1&keywords=android&keywords=iphone", resource.EncodeQuery(params))
}

func TestEncodeQuery_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", resource.EncodeQuery(resource.Params{}))
	assert.Equal(t, "", resource.EncodeQuery(resource.NewParams()))
	assert.Equal(t, "", resource.EncodeQuery(resource.NewParams(
		resource.Param("a", ""),
		resource.Param("b", 0),
		resource.Param("c", false),
		resource.Param("d", 0.0),
		resource.Param("e", math.NaN()),
		resource.ParamList[int]("f"),
		resource.Param("g", uint8(0)),
	)))
}

func TestEncodeQuery_Escaping(t *testing.T) {
	t.Parallel()
	params := resource.NewParams(
		resource.Param("q", "a b&c=d/e?f"),
		resource.Param("key with space", "x"),
		resource.Param("safe", "-_.!~*'()"),
		resource.Param("unicode", "čaj"),
		resource.ParamList("tags", "a,b", "c+d"),
	)
	assert.Equal(
		t,
		"?q=a%20b%26c%3Dd%2Fe%3Ff&key%20with%20space=x&safe=-_.!~*'()&unicode=%C4%8Daj&tags=a%2Cb&tags=c%2Bd",
		resource.EncodeQuery(params),
	)
}

func TestEncodeQuery_Order(t *testing.T) {
	t.Parallel()
	params := resource.NewParams(
		resource.Param("z", 1),
		resource.Param("a", 2),
		resource.Param("m", 3),
		resource.Param("z", 4), // position of the first value is kept
	)
	assert.Equal(t, "?z=4&a=2&m=3", resource.EncodeQuery(params))
}

func TestEncodeQueryWith_IncludeZero(t *testing.T) {
	t.Parallel()
	params := resource.NewParams(
		resource.Param("offset", 0),
		resource.Param("deleted", false),
		resource.Param("ignore", ""),
		resource.ParamList[int]("list"),
		resource.Param("limit", 10),
	)
	assert.Equal(t, "?limit=10", resource.EncodeQueryWith(params, resource.QueryOptions{}))
	assert.Equal(t, "?offset=0&deleted=false&limit=10", resource.EncodeQueryWith(params, resource.QueryOptions{IncludeZero: true}))
}

func TestEncodeQuery_ListElements(t *testing.T) {
	t.Parallel()
	params := resource.NewParams(resource.ParamList("ids", 1, 0, 2))
	assert.Equal(t, "?ids=1&ids=0&ids=2", resource.EncodeQuery(params))
}
