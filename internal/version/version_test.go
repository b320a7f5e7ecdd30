package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{
			name:  "plain triple",
			input: "1.12.45",
			want:  Version{Major: 1, Minor: 12, Patch: 45},
		},
		{
			name:  "v prefix tolerated",
			input: "v2.0.1",
			want:  Version{Major: 2, Minor: 0, Patch: 1},
		},
		{
			name:  "zeros",
			input: "0.0.0",
			want:  Version{},
		},
		{
			name:  "surrounding whitespace",
			input: "  1.2.3\n",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:    "two components",
			input:   "1.2",
			wantErr: true,
		},
		{
			name:    "four components",
			input:   "1.2.3.4",
			wantErr: true,
		},
		{
			name:    "negative component",
			input:   "1.-2.3",
			wantErr: true,
		},
		{
			name:    "non-numeric",
			input:   "1.2.x",
			wantErr: true,
		},
		{
			name:    "prerelease suffix rejected",
			input:   "1.2.3-rc.1",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "component exceeds int range",
			input:   "99999999999999999999.0.0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Parse(%q) error = %v, want ErrMalformed", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.12.0", "1.12.0", 0},
		{"1.12.0", "1.12.1", -1},
		{"1.12.1", "1.12.0", 1},
		{"1.12.0", "1.11.32", 1},
		{"2.0.0", "1.99.99", 1},
		{"0.9.9", "1.0.0", -1},
	}

	for _, tt := range tests {
		a := MustParse(tt.a)
		b := MustParse(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		// Antisymmetry
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestCompareTransitive(t *testing.T) {
	ordered := []string{"0.0.1", "0.1.0", "1.0.0", "1.11.32", "1.12.0", "1.12.1", "2.0.0"}
	for i := range ordered {
		for j := range ordered {
			a := MustParse(ordered[i])
			b := MustParse(ordered[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got := a.Compare(b); got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestUpdateAvailable(t *testing.T) {
	tests := []struct {
		local, remote string
		want          bool
	}{
		{"1.12.0", "1.12.1", true},
		{"1.12.0", "1.11.32", false},
		{"1.12.0", "1.12.0", false},
		{"1.12.0", "2.0.0", true},
	}

	for _, tt := range tests {
		got := UpdateAvailable(MustParse(tt.local), MustParse(tt.remote))
		if got != tt.want {
			t.Errorf("UpdateAvailable(%s, %s) = %v, want %v", tt.local, tt.remote, got, tt.want)
		}
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		local, minimum string
		want           bool
	}{
		{"1.12.0", "1.10.0", true},
		{"1.10.0", "1.10.0", true},
		{"1.9.9", "1.10.0", false},
	}

	for _, tt := range tests {
		got := Compatible(MustParse(tt.local), MustParse(tt.minimum))
		if got != tt.want {
			t.Errorf("Compatible(%s, %s) = %v, want %v", tt.local, tt.minimum, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	v := Version{Major: 1, Minor: 12, Patch: 45}
	if got := v.String(); got != "1.12.45" {
		t.Errorf("String() = %q, want %q", got, "1.12.45")
	}
}
