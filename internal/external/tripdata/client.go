package tripdata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/httputil"
	"github.com/ridedata/bikeqc/pkg/logger"
)

// FileEntry is one monthly archive in the public tripdata bucket
type FileEntry struct {
	Key          string
	URL          string
	Size         int64
	ETag         string
	LastModified string
}

// listBucketResult is the ListObjectsV2 response envelope. Only the
// fields the pagination loop needs are mapped.
type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key          string `xml:"Key"`
		Size         int64  `xml:"Size"`
		ETag         string `xml:"ETag"`
		LastModified string `xml:"LastModified"`
	} `xml:"Contents"`
}

// Client lists and downloads monthly trip archives from the public
// S3 bucket. The bucket allows anonymous access, so this speaks the
// plain ListObjectsV2 XML protocol over HTTP rather than an AWS SDK.
// Requests are throttled to stay polite against the shared bucket.
type Client struct {
	http        *httputil.Client
	limiter     *rate.Limiter
	bucketURL   string
	downloadDir string
	log         *logger.Logger
}

// NewClient creates a tripdata archive client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		http:        httpClient,
		limiter:     rate.NewLimiter(rate.Limit(cfg.Tripdata.RequestsPerSec), 1),
		bucketURL:   strings.TrimRight(cfg.Tripdata.BucketURL, "/"),
		downloadDir: cfg.Tripdata.DownloadDir,
		log:         log.WithField("component", "tripdata_client"),
	}
}

// ListArchives pages through the bucket listing and returns the zip
// archives sorted by key. Jersey City extracts (JC- prefix) are a
// separate dataset and are skipped.
func (c *Client) ListArchives(ctx context.Context) ([]FileEntry, error) {
	var entries []FileEntry
	token := ""

	for {
		result, err := c.listPage(ctx, token)
		if err != nil {
			return nil, err
		}

		for _, obj := range result.Contents {
			key, err := url.QueryUnescape(obj.Key)
			if err != nil || key == "" {
				continue
			}
			name := filepath.Base(key)
			if !strings.HasSuffix(strings.ToLower(name), ".zip") {
				continue
			}
			if strings.HasPrefix(strings.ToUpper(name), "JC-") {
				continue
			}
			entries = append(entries, FileEntry{
				Key:          key,
				URL:          c.bucketURL + "/" + escapeKey(key),
				Size:         obj.Size,
				ETag:         obj.ETag,
				LastModified: obj.LastModified,
			})
		}

		if !result.IsTruncated || result.NextContinuationToken == "" {
			break
		}
		token = result.NextContinuationToken
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Key) < strings.ToLower(entries[j].Key)
	})
	return entries, nil
}

func (c *Client) listPage(ctx context.Context, token string) (*listBucketResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("list-type", "2")
	params.Set("max-keys", "1000")
	params.Set("encoding-type", "url")
	if token != "" {
		params.Set("continuation-token", token)
	}

	resp, err := c.http.Get(ctx, c.bucketURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("bucket listing returned status %d", resp.StatusCode)
	}

	var result listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode bucket listing: %w", err)
	}
	return &result, nil
}

// Download fetches one archive into the download directory and returns
// the local path. An existing file with the expected size is reused.
func (c *Client) Download(ctx context.Context, entry FileEntry) (string, error) {
	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	dest := filepath.Join(c.downloadDir, filepath.Base(entry.Key))
	if info, err := os.Stat(dest); err == nil && entry.Size > 0 && info.Size() == entry.Size {
		c.log.WithField("file", dest).Debug("Archive already downloaded")
		return dest, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.http.Get(ctx, entry.URL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", entry.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("download of %s returned status %d", entry.Key, resp.StatusCode)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", part, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(part)
		return "", fmt.Errorf("failed to write %s: %w", part, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return "", err
	}

	if err := os.Rename(part, dest); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", dest, err)
	}

	c.log.WithFields(map[string]interface{}{
		"file": dest,
		"size": entry.Size,
	}).Info("Archive downloaded")
	return dest, nil
}

// escapeKey path-escapes each segment of an object key
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
