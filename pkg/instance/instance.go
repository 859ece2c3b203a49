package instance

import "os"

// GetID identifies the running process in logs. POS_INSTANCE_ID wins, then
// the platform dyno name, then the hostname.
func GetID(fallback string) string {
	for _, key := range []string{"POS_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
