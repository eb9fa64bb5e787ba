package session

import "testing"

func TestParseClientHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    Client
		wantErr bool
	}{
		{"device only", `device="d-123"`, Client{DeviceID: "d-123"}, false},
		{"with version", `device="d-123", version="v1.4.0"`, Client{DeviceID: "d-123", Version: "v1.4.0"}, false},
		{"version without v", `device="d-1", version="2.0"`, Client{DeviceID: "d-1", Version: "v2.0.0"}, false},
		{"params ignored", `device="d-1";trace=?1`, Client{DeviceID: "d-1"}, false},
		{"empty", ``, Client{}, true},
		{"missing device", `version="v1.0.0"`, Client{}, true},
		{"empty device", `device=""`, Client{}, true},
		{"device not string", `device=42`, Client{}, true},
		{"bad version", `device="d", version="latest"`, Client{}, true},
		{"malformed", `device=`, Client{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientHeader(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClientHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClientHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSupportedVersion(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"v1.4.0", "", true},
		{"", "", true},
		{"", "v1.0.0", false},
		{"v1.4.0", "v1.4.0", true},
		{"v1.3.9", "v1.4.0", false},
		{"v2.0.0", "1.4.0", true},
	}
	for _, tt := range tests {
		if got := SupportedVersion(tt.version, tt.min); got != tt.want {
			t.Errorf("SupportedVersion(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
}
