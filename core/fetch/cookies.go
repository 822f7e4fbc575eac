package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// cookieJar materializes a YouTube cookie string into a Netscape-format
// cookie file exactly once per process, caching the path for reuse by the
// subprocess fetcher. The file is written under a per-process temp
// directory and is never deleted between tracks (spec §5 resource policy).
type cookieJar struct {
	mu   sync.Mutex
	path string
}

var youtubeCookieJar cookieJar

// NetscapeCookieFile returns the cached path to a materialized Netscape
// cookie file for cookie, writing it on first call.
func NetscapeCookieFile(cookie string) (string, error) {
	if cookie == "" {
		return "", nil
	}

	youtubeCookieJar.mu.Lock()
	defer youtubeCookieJar.mu.Unlock()

	if youtubeCookieJar.path != "" {
		return youtubeCookieJar.path, nil
	}

	dir, err := os.MkdirTemp("", "oneradio-cookies-")
	if err != nil {
		return "", fmt.Errorf("fetch: cookie temp dir: %w", err)
	}

	path := filepath.Join(dir, "youtube.txt")
	if err := os.WriteFile(path, []byte(toNetscapeFormat(cookie)), 0o600); err != nil {
		return "", fmt.Errorf("fetch: write cookie file: %w", err)
	}

	youtubeCookieJar.path = path
	return path, nil
}

// toNetscapeFormat renders a raw "name=value; name2=value2" cookie header
// string as a Netscape cookies.txt file scoped to all YouTube hosts.
func toNetscapeFormat(cookie string) string {
	var sb strings.Builder
	sb.WriteString("# Netscape HTTP Cookie File\n")

	for _, seg := range strings.Split(cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(seg), "=")
		if !ok || name == "" {
			continue
		}
		fmt.Fprintf(&sb, ".youtube.com\tTRUE\t/\tTRUE\t0\t%s\t%s\n", name, value)
	}
	return sb.String()
}
