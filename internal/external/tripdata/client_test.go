package tripdata

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/httputil"
	"github.com/ridedata/bikeqc/pkg/logger"
)

func testClient(t *testing.T, bucketURL string) *Client {
	t.Helper()
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	cfg.Tripdata.BucketURL = bucketURL
	cfg.Tripdata.DownloadDir = t.TempDir()
	cfg.Tripdata.RequestsPerSec = 1000

	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

const listPageOne = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <IsTruncated>true</IsTruncated>
  <NextContinuationToken>tok-2</NextContinuationToken>
  <Contents><Key>201306-citibike-tripdata.zip</Key><Size>1024</Size></Contents>
  <Contents><Key>JC-201509-citibike-tripdata.zip</Key><Size>10</Size></Contents>
  <Contents><Key>index.html</Key><Size>5</Size></Contents>
</ListBucketResult>`

const listPageTwo = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <IsTruncated>false</IsTruncated>
  <Contents><Key>202401-citibike-tripdata.zip</Key><Size>2048</Size></Contents>
</ListBucketResult>`

func TestListArchives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("list-type"))
		if r.URL.Query().Get("continuation-token") == "tok-2" {
			fmt.Fprint(w, listPageTwo)
			return
		}
		fmt.Fprint(w, listPageOne)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	entries, err := client.ListArchives(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2, "JC extracts and non-zip keys are skipped")
	assert.Equal(t, "201306-citibike-tripdata.zip", entries[0].Key)
	assert.Equal(t, "202401-citibike-tripdata.zip", entries[1].Key)
	assert.Equal(t, server.URL+"/201306-citibike-tripdata.zip", entries[0].URL)
	assert.Equal(t, int64(1024), entries[0].Size)
}

func TestDownload(t *testing.T) {
	payload := []byte("zip-bytes")
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(payload)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	entry := FileEntry{
		Key:  "201306-citibike-tripdata.zip",
		URL:  server.URL + "/201306-citibike-tripdata.zip",
		Size: int64(len(payload)),
	}

	path, err := client.Download(context.Background(), entry)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// size matches, so the second call reuses the file
	_, err = client.Download(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestExtractCSVs(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "archive.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"202401-citibike-tripdata.csv": "ride_id\nabc\n",
		"__MACOSX/._202401.csv":        "junk",
		"JC-202401.csv":                "jersey",
		"readme.txt":                   "notes",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "csv")
	paths, err := ExtractCSVs(zipPath, out)
	require.NoError(t, err)

	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(out, "202401-citibike-tripdata.csv"), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "ride_id\nabc\n", string(data))
}
