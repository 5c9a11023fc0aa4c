package migrate

import "testing"

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up"); err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	testCases := []string{"sideways", "UP", "Down", ""}
	for _, dir := range testCases {
		t.Run(dir, func(t *testing.T) {
			if err := Run("postgres://localhost/quakeguard", dir); err == nil {
				t.Errorf("Run with direction %q should return error", dir)
			}
		})
	}
}
