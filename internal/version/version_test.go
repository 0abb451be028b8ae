// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information is properly defined
package version

import (
	"strings"
	"testing"
)

func TestConstantsDefined(t *testing.T) {
	tests := map[string]string{
		"Version":      Version,
		"Product":      Product,
		"Manufacturer": Manufacturer,
	}

	placeholders := []string{"TODO", "FIXME", "XXX", "placeholder"}

	for name, value := range tests {
		if value == "" {
			t.Errorf("%s should not be empty", name)
		}
		if len(value) > 100 {
			t.Errorf("%s is unreasonably long", name)
		}
		for _, p := range placeholders {
			if value == p {
				t.Errorf("%s should not be placeholder value: %s", name, p)
			}
		}
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, Product+"/") || !strings.HasSuffix(ua, Version) {
		t.Errorf("expected product/version, got %s", ua)
	}
}
