package cache

import "fmt"

// RateLimitKey namespaces the per-user request counter.
func RateLimitKey(userID string) string {
	return fmt.Sprintf("ratelimit:%s", userID)
}
