// ABOUTME: Tests for version constants
// ABOUTME: Ensures build identity is properly defined
package version

import "testing"

func TestIdentityDefined(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Product == "" {
		t.Error("Product should not be empty")
	}
	if Manufacturer == "" {
		t.Error("Manufacturer should not be empty")
	}
}
