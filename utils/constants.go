// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = time.Hour

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

// AuthCacheKey builds the composite cache key for a user's device session.
func AuthCacheKey(userID, deviceID string) string {
	return AuthCachePrefix + userID + ":" + deviceID
}
