package utils

import (
	"os"
	"strconv"
	"strings"
)

// Version is set at build time with -ldflags "-X sysrecv/utils.Version=..."
var Version = "dev"

// GetSanitizedEnvString returns the trimmed, lower-cased value of key, or
// defaultValue when it is unset or empty.
func GetSanitizedEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	value = strings.TrimSpace(value)
	value = strings.ToLower(value)

	return value
}

// GetEnvString is GetSanitizedEnvString without lower-casing, for paths.
func GetEnvString(key string, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))

	if value == "" {
		return defaultValue
	}

	return value
}

func GetSanitizedEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	value = strings.TrimSpace(value)

	// Convert string to int64
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func GetSanitizedEnvBool(key string, defaultValue bool) bool {
	value := GetSanitizedEnvString(key, "")

	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}
