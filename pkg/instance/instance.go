package instance

import "os"

// GetID identifies this worker replica in log fields. SOUQLY_INSTANCE_ID wins
// over the generic WORKER_ID set by the deploy tooling.
func GetID() string {
	if id := os.Getenv("SOUQLY_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "worker-0"
}
