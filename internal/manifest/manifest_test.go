package manifest

import (
	"errors"
	"testing"
	"time"

	"github.com/confeitaria/updater/internal/version"
)

func TestDecode(t *testing.T) {
	data := []byte(`{
		"version": "1.12.1",
		"release_date": "2026-08-01",
		"changelog": ["Fix pricing rounding", "New dashboard filters"],
		"min_compatible_version": "1.10.0",
		"min_python_version": "3.11",
		"sha256": "deadbeef"
	}`)

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if m.Version != version.MustParse("1.12.1") {
		t.Errorf("Version = %v", m.Version)
	}
	if m.MinimumCompatible != version.MustParse("1.10.0") {
		t.Errorf("MinimumCompatible = %v", m.MinimumCompatible)
	}
	if want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC); !m.ReleaseDate.Equal(want) {
		t.Errorf("ReleaseDate = %v, want %v", m.ReleaseDate, want)
	}
	if len(m.Changelog) != 2 || m.Changelog[0] != "Fix pricing rounding" {
		t.Errorf("Changelog = %v", m.Changelog)
	}
	if m.MinimumRuntime != "3.11" {
		t.Errorf("MinimumRuntime = %q", m.MinimumRuntime)
	}
	if m.SHA256 != "deadbeef" {
		t.Errorf("SHA256 = %q", m.SHA256)
	}
}

func TestDecodeMinimal(t *testing.T) {
	m, err := Decode([]byte(`{"version": "2.0.0"}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if m.Version != version.MustParse("2.0.0") {
		t.Errorf("Version = %v", m.Version)
	}
	if m.MinimumCompatible != (version.Version{}) {
		t.Errorf("MinimumCompatible = %v, want zero", m.MinimumCompatible)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `version=1.2.3`},
		{name: "missing version", data: `{"changelog": []}`},
		{name: "malformed version", data: `{"version": "1.2"}`},
		{name: "malformed min compatible", data: `{"version": "1.2.3", "min_compatible_version": "x"}`},
		{name: "malformed date", data: `{"version": "1.2.3", "release_date": "01/08/2026"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
