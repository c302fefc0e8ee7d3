package disk

import (
	"strings"
	"sync"
	"time"
)

const stampLayout = "20060102T150405.000000000"

// stamps are shared by the writer and the compactor so that every file
// name produced by this process sorts after the previous one.
var stamps struct {
	mu   sync.Mutex
	last time.Time
}

func nextStamp() string {
	stamps.mu.Lock()
	defer stamps.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(stamps.last) {
		now = stamps.last.Add(time.Nanosecond)
	}
	stamps.last = now
	return now.Format(stampLayout)
}

func landingName(dataset string) string {
	return nextStamp() + "_" + sanitizeDataset(dataset) + ParquetExt
}

func compactedName(dataset string) string {
	return CompactedPrefix + landingName(dataset)
}

func sanitizeDataset(dataset string) string {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return "events"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '-'
		}
		return r
	}, dataset)
}
