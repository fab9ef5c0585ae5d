package fsync

import (
	"crypto/md5" //nolint:gosec // digests detect local edits, not tampering
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FileDigest returns the hex md5 of the file content. A missing file yields
// an empty digest and no error, matching "nothing pulled here yet".
func FileDigest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the tracked file list
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := md5.New() //nolint:gosec // see package comment on md5 use
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
