package keys

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// MD5 hashes the data with md5
func MD5(data string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(data)))
}

// CustomKey joins key components with the specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// CacheKey joins cache key components
func CacheKey(components ...string) string {
	return CustomKey(":", components...)
}
