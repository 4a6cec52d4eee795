package redis

import "strings"

const keyNamespace = "ufsc"

// Key families. Every key is namespace:family:part[:part...].
const (
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familyStats       = "stats"
	familyLock        = "lock"
)

func buildKey(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(family)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(familyRateLimit, scope)
}

// StatsKey addresses one club's cached statistics for a season.
func (c *Client) StatsKey(clubID, season string) string {
	return buildKey(familyStats, clubID, season)
}

// StatsPattern is the SCAN glob matching every StatsKey.
func (c *Client) StatsPattern() string {
	return buildKey(familyStats, "*")
}

func (c *Client) LockKey(name string) string {
	return buildKey(familyLock, name)
}
