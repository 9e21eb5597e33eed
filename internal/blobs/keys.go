package blobs

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/joandiazestigarribia/upload-project/internal/random"
)

const defaultContentType = "application/octet-stream"

// newKey returns a fresh storage key for pathname: "<suffix>/<pathname>".
func newKey(pathname string) string {
	return random.Suffix() + "/" + strings.TrimLeft(pathname, "/")
}

// pathnameFromKey strips the random prefix from a key.
func pathnameFromKey(key string) string {
	_, name, found := strings.Cut(key, "/")
	if !found {
		return key
	}
	return name
}

// keyURL joins base and key, escaping each key segment.
func keyURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// keyFromURL is the inverse of keyURL. It reports false for URLs that do not
// live under base.
func keyFromURL(base, raw string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(raw, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	key, err := url.PathUnescape(rest)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// contentDisposition builds the attachment header stored with each object.
func contentDisposition(pathname string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(pathname)})
}

// ContentTypeFor guesses a MIME type from the pathname extension.
func ContentTypeFor(pathname string) string {
	if ct := mime.TypeByExtension(filepath.Ext(pathname)); ct != "" {
		return ct
	}
	return defaultContentType
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return defaultContentType
	}
	return ct
}
