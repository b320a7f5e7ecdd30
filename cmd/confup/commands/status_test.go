package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/confeitaria/updater/internal/display"
	"github.com/confeitaria/updater/internal/manifest"
)

func TestLicenseStanding(t *testing.T) {
	display.SetColorsEnabled(false)

	tests := []struct {
		name     string
		err      error
		hasToken bool
		want     string
	}{
		{
			name:     "rejected credential is delinquent",
			err:      manifest.ErrAuthRejected,
			hasToken: true,
			want:     "delinquent",
		},
		{
			name:     "inaccessible repository without credential is pending",
			err:      manifest.ErrNotFound,
			hasToken: false,
			want:     "pending",
		},
		{
			name:     "inaccessible repository with credential is delinquent",
			err:      manifest.ErrNotFound,
			hasToken: true,
			want:     "delinquent",
		},
		{
			name:     "offline cannot verify",
			err:      manifest.ErrNetworkUnavailable,
			hasToken: true,
			want:     "Cannot verify",
		},
		{
			name:     "unknown error cannot verify",
			err:      errors.New("boom"),
			hasToken: true,
			want:     "Cannot verify",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := licenseStanding(tt.err, tt.hasToken)
			if !strings.Contains(got, tt.want) {
				t.Errorf("licenseStanding = %q, want substring %q", got, tt.want)
			}
		})
	}
}
