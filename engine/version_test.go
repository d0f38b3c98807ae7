package engine

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input  string
		want   Version
		wantOk bool
	}{
		{"0.2.0", Version{0, 2, 0}, true},
		{"1.0.0", Version{1, 0, 0}, true},
		{"0.2", Version{0, 2, 0}, true},
		{"1", Version{1, 0, 0}, true},
		{"0.2.1", Version{0, 2, 1}, true},
		{"10.20.30", Version{10, 20, 30}, true},
		{"", Version{}, false},
		{"abc", Version{}, false},
		{"1.2.3.4", Version{}, false},
		{"1.a.0", Version{}, false},
		{"4294967295", Version{4294967295, 0, 0}, true}, // max uint32
		{"4294967296", Version{}, false},                // overflow
		{"9999999999", Version{}, false},                // way over
		{"1..0", Version{}, false},                      // empty part
		{".1.0", Version{}, false},                      // leading dot
		{"1.0.", Version{}, false},                      // trailing dot
	}

	for _, tt := range tests {
		v, ok := ParseVersion(tt.input)
		if ok != tt.wantOk {
			t.Errorf("ParseVersion(%q) ok = %v, want %v", tt.input, ok, tt.wantOk)
		}
		if ok && v != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, v, tt.want)
		}
	}
}

func TestVersionCompatible(t *testing.T) {
	tests := []struct {
		have   Version
		want   Version
		compat bool
	}{
		{Version{0, 1, 0}, Version{0, 1, 0}, true},  // exact match
		{Version{0, 1, 1}, Version{0, 1, 0}, true},  // patch higher
		{Version{0, 2, 0}, Version{0, 1, 0}, true},  // minor higher
		{Version{0, 1, 0}, Version{0, 2, 0}, false}, // minor lower
		{Version{1, 0, 0}, Version{0, 1, 0}, false}, // major different
		{Version{0, 1, 0}, Version{0, 1, 1}, false}, // patch lower
		{Version{0, 1, 0}, Version{0, 0, 9}, true},  // older request satisfied
	}

	for _, tt := range tests {
		got := tt.have.Compatible(tt.want)
		if got != tt.compat {
			t.Errorf("Version{%v}.Compatible(%v) = %v, want %v",
				tt.have, tt.want, got, tt.compat)
		}
	}
}

func TestVersionString(t *testing.T) {
	v := Version{1, 2, 3}
	if s := v.String(); s != "1.2.3" {
		t.Errorf("Version{1,2,3}.String() = %q, want %q", s, "1.2.3")
	}
}

func TestSplitNamespaceVersion(t *testing.T) {
	tests := []struct {
		input    string
		wantBase string
		wantVer  *Version
	}{
		{"canvas:host/api@0.1.0", "canvas:host/api", &Version{0, 1, 0}},
		{"canvas:host/api@0.0.9", "canvas:host/api", &Version{0, 0, 9}},
		{"canvas:host/api", "canvas:host/api", nil},
		{"canvas:host/api@garbage", "canvas:host/api@garbage", nil},
		{"a@b@1.2", "a@b", &Version{1, 2, 0}},
	}

	for _, tt := range tests {
		base, ver := splitNamespaceVersion(tt.input)
		if base != tt.wantBase {
			t.Errorf("splitNamespaceVersion(%q) base = %q, want %q", tt.input, base, tt.wantBase)
		}
		switch {
		case ver == nil && tt.wantVer != nil:
			t.Errorf("splitNamespaceVersion(%q) version = nil, want %v", tt.input, *tt.wantVer)
		case ver != nil && tt.wantVer == nil:
			t.Errorf("splitNamespaceVersion(%q) version = %v, want nil", tt.input, *ver)
		case ver != nil && tt.wantVer != nil && *ver != *tt.wantVer:
			t.Errorf("splitNamespaceVersion(%q) version = %v, want %v", tt.input, *ver, *tt.wantVer)
		}
	}
}
