package validation

import (
	"strings"
	"testing"
)

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		// Valid v4 UUIDs
		{"canonical", "a3bb189e-8bf9-4888-9912-ace4e6543002", false},
		{"variant 8", "00000000-0000-4000-8000-000000000000", false},
		{"variant b", "123e4567-e89b-42d3-b456-426614174000", false},

		// Invalid
		{"empty", "", true},
		{"uppercase", "A3BB189E-8BF9-4888-9912-ACE4E6543002", true},
		{"wrong version", "a3bb189e-8bf9-1888-9912-ace4e6543002", true},
		{"wrong variant", "a3bb189e-8bf9-4888-1912-ace4e6543002", true},
		{"no hyphens", "a3bb189e8bf948889912ace4e6543002", true},
		{"too short", "a3bb189e-8bf9-4888-9912", true},
		{"path traversal", "../../../etc/passwd", true},
		{"log injection", "abc\nERROR fake line", true},
		{"trailing junk", "a3bb189e-8bf9-4888-9912-ace4e6543002x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{"already canonical", "a3bb189e-8bf9-4888-9912-ace4e6543002", "a3bb189e-8bf9-4888-9912-ace4e6543002", false},
		{"uppercase normalized", "A3BB189E-8BF9-4888-9912-ACE4E6543002", "a3bb189e-8bf9-4888-9912-ace4e6543002", false},
		{"surrounding space", "  a3bb189e-8bf9-4888-9912-ace4e6543002\n", "a3bb189e-8bf9-4888-9912-ace4e6543002", false},
		{"garbage", "not-a-uuid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeRequestID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeRequestID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeRequestID(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidateRequirementText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"normal requirement", "Add CSV export to the reporting dashboard", false},
		{"exactly min", strings.Repeat("a", MinRequirementChars), false},
		{"exactly max", strings.Repeat("a", MaxRequirementChars), false},
		{"empty", "", true},
		{"whitespace only", "   \n\t  ", true},
		{"too short", "fix bug", true},
		{"padded short text", "  fix bug  ", true},
		{"too long", strings.Repeat("a", MaxRequirementChars+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequirementText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequirementText() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
