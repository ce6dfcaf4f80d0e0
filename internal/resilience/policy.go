package resilience

import "time"

// Policy bundles the retry and breaker settings for one remote service.
type Policy struct {
	Retry   Retrier
	Breaker BreakerConfig
}

// CatalogPolicy is used for Splunkbase calls. maxRetries counts retries after
// the first attempt. The breaker opens after five consecutive transient
// failures so a catalog outage fails the remaining apps fast.
func CatalogPolicy(maxRetries int) Policy {
	return Policy{
		Retry: Retrier{
			Attempts: max(1, maxRetries+1),
			Backoff: Backoff{
				Initial: time.Second,
				Max:     30 * time.Second,
				Factor:  2,
				Jitter:  0.25,
			},
			Retryable: IsTransient,
			OnRetry:   LogRetries("splunkbase"),
		},
		Breaker: BreakerConfig{
			Name:      "splunkbase",
			Threshold: 5,
			Cooldown:  time.Minute,
			Trips:     IsTransient,
		},
	}
}
