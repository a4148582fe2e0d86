// SPDX-License-Identifier: MIT

// Package playlist parses HLS media playlists into segment references.
package playlist

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"
)

// ManifestSignature is the leading tag of every HLS playlist document.
const ManifestSignature = "#EXTM3U"

// Segment is one media segment reference from a playlist.
type Segment struct {
	// Ref is the raw reference string as it appeared in the playlist.
	// It is the dedup key for the segment within a capture session.
	Ref string
	// URL is the absolute fetch URL, resolved against the playlist base.
	URL string
}

// IsManifest reports whether data starts with an HLS playlist signature.
// Leading whitespace and UTF-8 BOM are tolerated.
func IsManifest(data []byte) bool {
	s := strings.TrimLeft(strings.TrimPrefix(string(data), "\xef\xbb\xbf"), " \t\r\n")
	return strings.HasPrefix(s, ManifestSignature)
}

// ParseSegments extracts the ordered segment references from a media
// playlist document. Directive lines (starting with '#') and blank lines
// are skipped; relative references are resolved against base. A document
// without the playlist signature is malformed.
func ParseSegments(doc string, base *url.URL) ([]Segment, error) {
	if !IsManifest([]byte(doc)) {
		return nil, fmt.Errorf("malformed playlist: missing %s signature", ManifestSignature)
	}

	var segments []Segment
	scanner := bufio.NewScanner(strings.NewReader(doc))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		abs, err := resolve(line, base)
		if err != nil {
			return nil, fmt.Errorf("malformed segment reference %q: %w", line, err)
		}
		segments = append(segments, Segment{Ref: line, URL: abs})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan playlist: %w", err)
	}
	return segments, nil
}

func resolve(ref string, base *url.URL) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return ref, nil
	}
	if base == nil {
		return "", fmt.Errorf("relative reference with no base URL")
	}
	return base.ResolveReference(u).String(), nil
}
