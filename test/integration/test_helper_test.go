package integration

import (
	"os"
	"testing"
	"time"
)

// BaseURL points at the API under test; override with INTEGRATION_BASE_URL.
var BaseURL = "http://localhost:8080"

func TestMain(m *testing.M) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		// Integration tests need a running API and database
		os.Exit(0)
	}

	if url := os.Getenv("INTEGRATION_BASE_URL"); url != "" {
		BaseURL = url
	}

	// Wait for the service to come up
	time.Sleep(5 * time.Second)

	code := m.Run()

	cleanup()

	os.Exit(code)
}

func cleanup() {
	// Test sale records are left in place; each run creates fresh ones
}
