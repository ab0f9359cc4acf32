package events

import (
	"log/slog"
	"math"
	"sort"

	"gorm.io/gorm"
)

// SnapshotWindow is the number of most recent events a snapshot is computed
// over. Sessions older than the window are invisible to every derived metric.
const SnapshotWindow = 1000

// BucketCount is one row of a breakdown table (device, browser, OS, referrer,
// country).
type BucketCount struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Snapshot is a derived aggregation over the most recent SnapshotWindow
// events. It is never persisted; every computation starts from scratch.
type Snapshot struct {
	PageViews          int `json:"pageViews"`
	CVDownloads        int `json:"cvDownloads"`
	ProjectViews       int `json:"projectViews"`
	ContactSubmissions int `json:"contactSubmissions"`
	SocialClicks       int `json:"socialClicks"`
	EmailClicks        int `json:"emailClicks"`
	PhoneClicks        int `json:"phoneClicks"`
	Bounces            int `json:"bounces"`
	ReturnVisitors     int `json:"returnVisitors"`

	BounceRate        int `json:"bounceRate"`
	ReturnVisitorRate int `json:"returnVisitorRate"`
	UniqueSessions    int `json:"uniqueSessions"`

	Devices          []BucketCount `json:"devices"`
	Browsers         []BucketCount `json:"browsers"`
	OperatingSystems []BucketCount `json:"operatingSystems"`
	Referrers        []BucketCount `json:"referrers"`
	Countries        []BucketCount `json:"countries"`
}

// EmptySnapshot returns the all-zero snapshot used when no events are
// available or the fetch itself failed.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Devices:          []BucketCount{},
		Browsers:         []BucketCount{},
		OperatingSystems: []BucketCount{},
		Referrers:        []BucketCount{},
		Countries:        []BucketCount{},
	}
}

// ComputeSnapshot fetches the most recent SnapshotWindow events (newest
// first) and reduces them into a Snapshot. It never partial-fails: a fetch
// error yields the empty snapshot, not an error.
func ComputeSnapshot(db *gorm.DB, logger *slog.Logger) Snapshot {
	fetched, err := RecentEvents(db, SnapshotWindow)
	if err != nil {
		logger.Error("Failed to fetch events for snapshot", slog.Any("error", err))
		return EmptySnapshot()
	}
	return SnapshotFromEvents(fetched)
}

// SnapshotFromEvents reduces an already-fetched event window into a Snapshot
// in a single pass.
//
// All breakdown percentages share one denominator: the number of events in
// the window that carried a user agent. Per-table denominators would change
// every displayed percentage, so callers rely on this staying shared.
func SnapshotFromEvents(fetched []Event) Snapshot {
	snapshot := EmptySnapshot()

	deviceCounts := make(map[string]int)
	browserCounts := make(map[string]int)
	osCounts := make(map[string]int)
	referrerCounts := make(map[string]int)
	countryCounts := make(map[string]int)
	sessions := make(map[string]struct{})

	withUserAgent := 0

	for _, event := range fetched {
		switch event.Type {
		case EventTypePageView:
			snapshot.PageViews++
		case EventTypeCVDownload:
			snapshot.CVDownloads++
		case EventTypeProjectView:
			snapshot.ProjectViews++
		case EventTypeContactFormSubmit:
			snapshot.ContactSubmissions++
		case EventTypeSocialClick:
			snapshot.SocialClicks++
		case EventTypeEmailClick:
			snapshot.EmailClicks++
		case EventTypePhoneClick:
			snapshot.PhoneClicks++
		case EventTypeBounce:
			snapshot.Bounces++
		case EventTypeReturnVisitor:
			snapshot.ReturnVisitors++
		}

		if event.UserAgent != "" {
			withUserAgent++
			deviceCounts[ClassifyDevice(event.UserAgent)]++
		}
		if event.Browser != "" {
			browserCounts[event.Browser]++
		}
		if event.OperatingSystem != "" {
			osCounts[event.OperatingSystem]++
		}
		if event.Referrer != "" {
			referrerCounts[ClassifyReferrer(event.Referrer)]++
		}
		if event.Country != "" && event.Country != UnknownCountry {
			countryCounts[event.Country]++
		}
		if event.SessionID != "" {
			sessions[event.SessionID] = struct{}{}
		}
	}

	snapshot.BounceRate = ratePercent(snapshot.Bounces, snapshot.PageViews)
	snapshot.ReturnVisitorRate = ratePercent(snapshot.ReturnVisitors, snapshot.PageViews)
	snapshot.UniqueSessions = len(sessions)

	snapshot.Devices = bucketize(deviceCounts, withUserAgent)
	snapshot.Browsers = bucketize(browserCounts, withUserAgent)
	snapshot.OperatingSystems = bucketize(osCounts, withUserAgent)
	snapshot.Referrers = bucketize(referrerCounts, withUserAgent)
	snapshot.Countries = bucketize(countryCounts, withUserAgent)

	return snapshot
}

// ratePercent returns round(part/total*100), or 0 when total is 0.
func ratePercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// bucketize converts a count table into sorted BucketCount rows against the
// shared denominator. Buckets sort by count descending, then name, so the
// output is deterministic.
func bucketize(counts map[string]int, denominator int) []BucketCount {
	buckets := make([]BucketCount, 0, len(counts))
	for name, count := range counts {
		buckets = append(buckets, BucketCount{
			Name:       name,
			Count:      count,
			Percentage: ratePercent(count, denominator),
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})

	return buckets
}
