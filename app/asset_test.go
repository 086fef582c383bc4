package app

import (
	"github.com/skyhookml/netviz/netviz"

	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadAsset(t *testing.T, filename string, data []byte) netviz.Asset {
	rec := serve(uploadRequest(t, "/assets", filename, data))
	require.Equal(t, 200, rec.Code, string(readBody(t, rec)))
	var asset netviz.Asset
	require.NoError(t, json.Unmarshal(readBody(t, rec), &asset))
	return asset
}

func TestAssets(t *testing.T) {
	first := minimalGLB(`{"asset":{"version":"2.0","generator":"first"},"meshes":[{}]}`)
	second := minimalGLB(`{"asset":{"version":"2.0","generator":"second"},"meshes":[{},{}],"nodes":[{}]}`)

	a := uploadAsset(t, "first.glb", first)
	assert.Equal(t, "first.glb", a.Filename)
	assert.Equal(t, int64(len(first)), a.Size)
	assert.Equal(t, "first", a.Info.Generator)
	time.Sleep(time.Millisecond)
	b := uploadAsset(t, "second.glb", second)
	assert.Equal(t, 2, b.Info.Meshes)
	assert.NotEqual(t, a.ID, b.ID)

	rec := serve(httptest.NewRequest("GET", "/assets/latest", nil))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, netviz.GLBMimeType, rec.Header().Get("Content-Type"))
	assert.Equal(t, second, readBody(t, rec))

	rec = serve(httptest.NewRequest("GET", "/assets/"+a.ID, nil))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, first, readBody(t, rec))

	rec = serve(httptest.NewRequest("GET", "/assets", nil))
	require.Equal(t, 200, rec.Code)
	var list []netviz.Asset
	require.NoError(t, json.Unmarshal(readBody(t, rec), &list))
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, b.ID, list[0].ID)

	rec = serve(httptest.NewRequest("GET", "/assets/no-such-id", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestAssetRejectsInvalid(t *testing.T) {
	before := len(ListAssets())
	rec := serve(uploadRequest(t, "/assets", "scene.glb", []byte("not a glb file at all")))
	assert.Equal(t, 400, rec.Code)
	assert.Len(t, ListAssets(), before)
}

func TestInitDBPrunesMissing(t *testing.T) {
	asset := uploadAsset(t, "pruned.glb", minimalGLB(`{"asset":{"version":"2.0"}}`))
	dbAsset := GetAsset(asset.ID)
	require.NotNil(t, dbAsset)
	require.NoError(t, os.Remove(dbAsset.Fname()))

	require.NoError(t, InitDB(Config.DBPath))
	assert.Nil(t, GetAsset(asset.ID))
}
