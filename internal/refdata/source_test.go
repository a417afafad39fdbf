package refdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body string
	err  error
}

func (f fakeFetcher) FetchTable(ctx context.Context, name string) (string, error) {
	return f.body, f.err
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("https://example.com/files/products.csv", nil, time.Second)
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	src, err = ParseSource("pg:shipfee", fakeFetcher{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pg:shipfee", src.String())

	src, err = ParseSource("files/products.csv", nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "files/products.csv"}, src)

	_, err = ParseSource("pg:", nil, time.Second)
	assert.Error(t, err)

	_, err = ParseSource("  ", nil, time.Second)
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipfee.csv")
	require.NoError(t, os.WriteFile(path, []byte("method,prefecture,shipfee\nA,全国一律,100\n"), 0o644))

	rows, err := Load(context.Background(), FileSource{Path: path}, RateTableShape)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0].Get("shipfee"))
}

func TestLoadMissingFileIsDataSourceError(t *testing.T) {
	_, err := Load(context.Background(), FileSource{Path: "/nonexistent/products.csv"}, CatalogShape)
	require.Error(t, err)
	assert.True(t, IsDataSourceError(err))

	var dse *DataSourceError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, "catalog", dse.Table)
}

func TestLoadFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/shipfee.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("method,prefecture,shipfee\nA,東京都,700\n"))
	}))
	defer srv.Close()

	rows, err := Load(context.Background(), NewHTTPSource(srv.URL+"/files/shipfee.csv", time.Second), RateTableShape)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "東京都", rows[0].Get("prefecture"))

	_, err = Load(context.Background(), NewHTTPSource(srv.URL+"/missing.csv", time.Second), RateTableShape)
	assert.True(t, IsDataSourceError(err))
}

func TestLoadFromDB(t *testing.T) {
	rows, err := Load(context.Background(), DBSource{Fetcher: fakeFetcher{body: "method,prefecture,shipfee\nB,全国一律,520\n"}, Table: "shipfee"}, RateTableShape)
	require.NoError(t, err)
	assert.Equal(t, "520", rows[0].Get("shipfee"))

	_, err = Load(context.Background(), DBSource{Fetcher: fakeFetcher{err: errors.New("boom")}, Table: "shipfee"}, RateTableShape)
	assert.True(t, IsDataSourceError(err))

	_, err = Load(context.Background(), DBSource{Table: "shipfee"}, RateTableShape)
	assert.True(t, IsDataSourceError(err))
}

func TestLoadMalformedTableIsDataSourceError(t *testing.T) {
	_, err := Load(context.Background(), DBSource{Fetcher: fakeFetcher{body: "foo,bar\n1,2\n"}, Table: "shipfee"}, RateTableShape)
	assert.True(t, IsDataSourceError(err))
}
