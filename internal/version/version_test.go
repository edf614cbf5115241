package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		version string
		target  string
		gte     bool
		gt      bool
	}{
		{"0.2.1", "0.2.1", true, false},
		{"0.2.1", "0.2.0", true, true},
		{"0.2.1", "0.10.0", false, false},
		{"1.0.0", "0.9.9", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.version+"_"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.gte, IsVersionGreaterOrEqualThan(tt.version, tt.target))
			assert.Equal(t, tt.gt, IsVersionGreaterThan(tt.version, tt.target))
		})
	}
}

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.2", GetMinorVersion("0.2.1"))
	assert.Equal(t, "", GetMinorVersion("0.2"))
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}
