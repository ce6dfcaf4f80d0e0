package upgrade

import (
	"strings"

	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// Bucket holds the results sharing one upgrade status, in input order.
type Bucket struct {
	Status  model.UpgradeStatus
	Results []model.ClassificationResult
}

// Group partitions results by status. Buckets come back in status order and
// only non-empty buckets are returned. Grouping is stable.
func Group(results []model.ClassificationResult) []Bucket {
	byStatus := make(map[model.UpgradeStatus][]model.ClassificationResult, len(model.AllStatuses))
	for _, r := range results {
		byStatus[r.UpgradeStatus] = append(byStatus[r.UpgradeStatus], r)
	}

	var buckets []Bucket
	for _, s := range model.AllStatuses {
		if rs := byStatus[s]; len(rs) > 0 {
			buckets = append(buckets, Bucket{Status: s, Results: rs})
		}
	}
	return buckets
}

// Flatten concatenates buckets back into a single slice.
func Flatten(buckets []Bucket) []model.ClassificationResult {
	var n int
	for _, b := range buckets {
		n += len(b.Results)
	}
	out := make([]model.ClassificationResult, 0, n)
	for _, b := range buckets {
		out = append(out, b.Results...)
	}
	return out
}

// Counts returns the number of results per status key.
func Counts(buckets []Bucket) map[string]int {
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b.Status.Key()] += len(b.Results)
	}
	return counts
}

// FileStem turns a status label into a filesystem-safe file name stem.
func FileStem(label string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(label))
	if stem == "" {
		return "unclassified"
	}
	return stem
}
