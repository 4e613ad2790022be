package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixProfile is the prefix for every profile-scoped key
	KeyPrefixProfile = "rant:profile:"
)

// ProfileKey returns the Redis key for a kv key (already scoped by profile)
func ProfileKey(key string) string {
	return KeyPrefixProfile + key
}

// ExtractKey strips the Redis prefix from a profile key
func ExtractKey(redisKey string) (string, error) {
	if !strings.HasPrefix(redisKey, KeyPrefixProfile) || len(redisKey) == len(KeyPrefixProfile) {
		return "", fmt.Errorf("invalid profile key: %s", redisKey)
	}
	return redisKey[len(KeyPrefixProfile):], nil
}
