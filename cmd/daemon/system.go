// SPDX-License-Identifier: MIT
package main

import "github.com/halamedia/aircheck/internal/schedule"

// systemSchedules are the broadcaster-managed capture jobs. They are seeded
// into the registry at every startup and cannot be deleted through the API.
func systemSchedules() []schedule.Job {
	everyDay := []int{0, 1, 2, 3, 4, 5, 6}
	return []schedule.Job{
		{
			ID:          "system-news-noon",
			Name:        "Hala FM News Noon",
			StationID:   "1",
			URL:         "https://partwota.cdn.mgmlcdn.com/halafm/smil:halafm.stream.smil/chunklist.m3u8",
			Time:        "12:00",
			Days:        everyDay,
			DurationSec: 1800,
			Enabled:     true,
		},
		{
			ID:          "system-news-evening",
			Name:        "Hala FM News Evening",
			StationID:   "1",
			URL:         "https://partwota.cdn.mgmlcdn.com/halafm/smil:halafm.stream.smil/chunklist.m3u8",
			Time:        "18:00",
			Days:        everyDay,
			DurationSec: 1800,
			Enabled:     true,
		},
	}
}
