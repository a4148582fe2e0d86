// SPDX-License-Identifier: MIT

package capture

import (
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename derives the deterministic delivery filename for a capture:
// the job name with whitespace collapsed to underscores, an ISO-8601 UTC
// timestamp with path-unsafe characters normalized, and an .mp3 suffix.
// Example: "Hala FM Tech News" at 13:00 UTC becomes
// "Hala_FM_Tech_News_2026-03-01T13-00-00-000Z.mp3".
func Filename(jobName string, ts time.Time) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(jobName), "_")
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return name + "_" + stamp + ".mp3"
}
