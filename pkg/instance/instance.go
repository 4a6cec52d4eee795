package instance

import (
	"fmt"
	"os"
)

// GetID identifies this process when it holds a distributed lock.
func GetID() string {
	if id := os.Getenv("UFSC_WORKER_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
