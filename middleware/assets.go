package middleware

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	assetVersions     = map[string]string{}
	assetVersionsMu   sync.RWMutex
	assetVersionFiles = []string{"css/app.css", "js/app.js"}
)

// InitAssetVersions hashes the static assets under dir for cache busting
func InitAssetVersions(dir string) {
	assetVersionsMu.Lock()
	defer assetVersionsMu.Unlock()
	for _, name := range assetVersionFiles {
		version := computeFileHash(filepath.Join(dir, name))
		if version == "" {
			version = "1"
		}
		assetVersions[name] = version
	}
	log.Printf("[INFO] Asset versions initialized: %v", assetVersions)
}

// computeFileHash returns the first 8 characters of the MD5 hash of a file
func computeFileHash(path string) string {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("[WARNING] Failed to open file for hashing %s: %v", path, err)
		return ""
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		log.Printf("[WARNING] Failed to hash file %s: %v", path, err)
		return ""
	}
	return hex.EncodeToString(hash.Sum(nil))[:8]
}

// AssetVersion returns the version hash of a static asset, "1" when unknown
func AssetVersion(name string) string {
	assetVersionsMu.RLock()
	defer assetVersionsMu.RUnlock()
	if v, ok := assetVersions[name]; ok {
		return v
	}
	return "1"
}
