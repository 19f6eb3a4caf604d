package utils

import (
	"bytes"
	"strings"

	"golang.org/x/text/transform"

	"github.com/mogaika/sceneimport/config"
)

// BytesToString decodes a raw byte string, truncated at the first NUL,
// using the configured legacy charmap. FBX files written by old
// exporters carry non-UTF8 object names.
func BytesToString(bs []byte) string {
	if n := bytes.IndexByte(bs, 0); n >= 0 {
		bs = bs[:n]
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return string(bs)
	}
	return string(s)
}

// FBXName splits the "Class::Name" convention out of a raw FBX string
// property. Binary files store it reversed as "Name\x00\x01Class".
func FBXName(raw string) (class, name string) {
	if i := strings.Index(raw, "\x00\x01"); i >= 0 {
		return raw[i+2:], raw[:i]
	}
	if i := strings.Index(raw, "::"); i >= 0 {
		return raw[:i], raw[i+2:]
	}
	return "", raw
}
