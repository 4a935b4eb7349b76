package products

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	products map[string]string
	calls    int
}

func (f *stubFetcher) Fetch(symbol string) (string, error) {
	f.calls++
	if name, ok := f.products[symbol]; ok {
		return name, nil
	}
	return "", errors.New("not found")
}

func TestCatalogBuiltin(t *testing.T) {
	c := NewCatalog()

	name, ok := c.Product("matK")
	require.True(t, ok)
	assert.Equal(t, "maturase K", name)

	_, ok = c.Product("unknownGene")
	assert.False(t, ok)
}

func TestCatalogOverridesWin(t *testing.T) {
	c := NewCatalog()
	c.SetOverrides(map[string]string{"matK": "my maturase"})

	name, ok := c.Product("matK")
	require.True(t, ok)
	assert.Equal(t, "my maturase", name)
}

func TestCatalogStoreBeforeBuiltin(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put("matK", "cached maturase", "entrez"))

	c := NewCatalog()
	c.SetStore(store)

	name, ok := c.Product("matK")
	require.True(t, ok)
	assert.Equal(t, "cached maturase", name)
}

func TestCatalogFetchWriteBack(t *testing.T) {
	store := openTestStore(t)
	fetcher := &stubFetcher{products: map[string]string{"trnQ": "tRNA-Gln"}}

	c := NewCatalog()
	c.SetStore(store)
	c.SetFetcher(fetcher)

	name, ok := c.Product("trnQ")
	require.True(t, ok)
	assert.Equal(t, "tRNA-Gln", name)
	assert.Equal(t, 1, fetcher.calls)

	// Second lookup is served from the cache.
	name, ok = c.Product("trnQ")
	require.True(t, ok)
	assert.Equal(t, "tRNA-Gln", name)
	assert.Equal(t, 1, fetcher.calls)

	cached, found, err := store.Get("trnQ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tRNA-Gln", cached)
}

func TestCatalogFetchFailureIsMiss(t *testing.T) {
	c := NewCatalog()
	c.SetFetcher(&stubFetcher{})

	_, ok := c.Product("noSuchGene")
	assert.False(t, ok)
}

func TestCatalogBuiltinSkipsFetcher(t *testing.T) {
	fetcher := &stubFetcher{}
	c := NewCatalog()
	c.SetFetcher(fetcher)

	_, ok := c.Product("rbcL")
	require.True(t, ok)
	assert.Zero(t, fetcher.calls)
}

func TestBuiltinReturnsCopy(t *testing.T) {
	m := Builtin()
	m["matK"] = "tampered"

	c := NewCatalog()
	name, _ := c.Product("matK")
	assert.Equal(t, "maturase K", name)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.tsv")
	content := "# symbol\tproduct\nmatK\tmaturase K variant\n\ntrnL\ttRNA-Leu\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"matK": "maturase K variant",
		"trnL": "tRNA-Leu",
	}, overrides)
}

func TestLoadOverridesBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.tsv")
	require.NoError(t, os.WriteFile(path, []byte("matK maturase K\n"), 0o644))

	_, err := LoadOverrides(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadOverridesMissingFile(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.tsv"))
	assert.Error(t, err)
}
