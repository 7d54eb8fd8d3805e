package util

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const hashLen = 12

// GetHashedFilename turns "main.css" into "main_<12 hex chars>.css".
func GetHashedFilename(content []byte, originalFileName string) string {
	sum := sha256.Sum256(content)
	hashedSuffix := fmt.Sprintf("%x", sum)[:hashLen]
	ext := filepath.Ext(originalFileName)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(originalFileName, ext), hashedSuffix, ext)
}

// GetIsHashedSibling reports whether candidate is a hashed variant of
// originalFileName, as produced by GetHashedFilename.
func GetIsHashedSibling(candidate, originalFileName string) bool {
	ext := filepath.Ext(originalFileName)
	base := strings.TrimSuffix(originalFileName, ext)
	re := regexp.MustCompile(
		"^" + regexp.QuoteMeta(base) + "_[0-9a-f]{" + fmt.Sprint(hashLen) + "}" + regexp.QuoteMeta(ext) + "$",
	)
	return re.MatchString(candidate)
}
