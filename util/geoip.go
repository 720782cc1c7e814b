package util

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

var (
	geoipDB        *geoip2.Reader
	geoipCache     *cache.Cache
	geoipCacheHits int64
	geoipCacheMiss int64
)

// IPLocation is a resolved request origin. Both fields are empty when no
// lookup is available.
type IPLocation struct {
	City    string
	Country string
}

// InitGeoIP initializes the local GeoIP2 database reader and an in-memory cache.
// Provide the path to a GeoIP2/GeoLite2 .mmdb file via `dbPath`.
// If dbPath is empty or the file cannot be opened, initialization is a no-op.
func InitGeoIP(dbPath string) error {
	// Allow callers to pass dbPath or fall back to env var
	if dbPath == "" {
		dbPath = os.Getenv("GEOIP_DB_PATH")
	}
	if dbPath == "" {
		return nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoipDB = r
	// Cache entries for 24h, purge every hour
	geoipCache = cache.New(24*time.Hour, 1*time.Hour)
	return nil
}

// EnsureGeoIP prepares the location database for event logging. When the file
// named by GEOIP_DB_PATH is missing and GEOIP_DOWNLOAD_URL is set, the
// database is fetched first. Lookups stay disabled when neither is available.
func EnsureGeoIP(ctx context.Context) error {
	dbPath := os.Getenv("GEOIP_DB_PATH")
	if dbPath == "" {
		return nil
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		url := os.Getenv("GEOIP_DOWNLOAD_URL")
		if url == "" {
			return nil
		}
		if _, err := DownloadGeoIPWithRequest(ctx, DownloadRequest{URL: url, DestPath: dbPath}); err != nil {
			return fmt.Errorf("download geoip database: %w", err)
		}
		if err := ValidateGeoIP(dbPath); err != nil {
			return fmt.Errorf("validate geoip database: %w", err)
		}
	}

	return InitGeoIP(dbPath)
}

// CloseGeoIP closes the GeoIP DB if opened.
func CloseGeoIP() {
	if geoipDB != nil {
		_ = geoipDB.Close()
		geoipDB = nil
	}
}

// DownloadRequest names the source URL and destination path of a database download.
type DownloadRequest struct {
	URL      string
	DestPath string
}

// DownloadGeoIPWithRequest downloads a GeoIP MMDB file and writes it to the
// requested destination. If the downloaded content is gzip-compressed (URL
// ends with .gz), it will be decompressed automatically. The file is written
// through a temp file that is removed on failure. Returns the final path.
func DownloadGeoIPWithRequest(ctx context.Context, req DownloadRequest) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download, status: %d", resp.StatusCode)
	}

	destDir := filepath.Dir(req.DestPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(destDir, "geoip-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmpFile.Name()
	cleanup := func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
	}

	// If URL looks like a gzipped file, decompress on the fly
	var src io.Reader = resp.Body
	if filepath.Ext(req.URL) == ".gz" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			cleanup()
			return "", err
		}
		defer gzReader.Close()
		src = gzReader
	}

	if _, err := io.Copy(tmpFile, src); err != nil {
		cleanup()
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	if err := os.Rename(tmpName, req.DestPath); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return req.DestPath, nil
}

// ValidateGeoIP attempts to open the MMDB file to ensure it's a valid DB.
func ValidateGeoIP(path string) error {
	r, err := geoip2.Open(path)
	if err != nil {
		return err
	}
	_ = r.Close()
	return nil
}

// GetIPLocation resolves the city and country for the provided IP using the
// local GeoIP database with an in-memory cache. Returns the zero IPLocation
// when a lookup is not available.
func GetIPLocation(ip string) IPLocation {
	if ip == "" {
		return IPLocation{}
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return IPLocation{}
	}
	// Private and local origins carry no useful location
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return IPLocation{}
	}

	if geoipCache != nil {
		if v, ok := geoipCache.Get(ip); ok {
			atomic.AddInt64(&geoipCacheHits, 1)
			if loc, ok := v.(IPLocation); ok {
				return loc
			}
		}
	}
	atomic.AddInt64(&geoipCacheMiss, 1)

	if geoipDB == nil {
		return IPLocation{}
	}

	rec, err := geoipDB.City(parsed)
	if err != nil {
		return IPLocation{}
	}

	loc := IPLocation{}
	if rec.City.Names != nil {
		loc.City = rec.City.Names["en"]
	}
	if rec.Country.Names != nil {
		loc.Country = rec.Country.Names["en"]
	}
	if loc.Country == "" {
		loc.Country = rec.Country.IsoCode
	}

	if geoipCache != nil {
		geoipCache.Set(ip, loc, cache.DefaultExpiration)
	}

	return loc
}

// GetGeoIPCacheMetrics returns the cache hits and misses and current cache size.
func GetGeoIPCacheMetrics() (hits int64, misses int64, size int) {
	hits = atomic.LoadInt64(&geoipCacheHits)
	misses = atomic.LoadInt64(&geoipCacheMiss)
	if geoipCache != nil {
		return hits, misses, geoipCache.ItemCount()
	}
	return hits, misses, 0
}
