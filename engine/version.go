package engine

import "strings"

// Version represents a semantic version for namespace matching
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// ParseVersion parses a version string like "0.2.0" or "0.2"
func ParseVersion(s string) (Version, bool) {
	if s == "" {
		return Version{}, false
	}

	var v Version
	parts := strings.Split(s, ".")
	if len(parts) < 1 || len(parts) > 3 {
		return Version{}, false
	}

	for i, p := range parts {
		if p == "" {
			return Version{}, false
		}
		var n uint32
		for _, c := range p {
			if c < '0' || c > '9' {
				return Version{}, false
			}
			// Check for overflow before multiplication
			if n > 429496729 || (n == 429496729 && c > '5') {
				return Version{}, false
			}
			n = n*10 + uint32(c-'0')
		}
		switch i {
		case 0:
			v.Major = n
		case 1:
			v.Minor = n
		case 2:
			v.Patch = n
		}
	}
	return v, true
}

// Compatible returns true if v satisfies a request for want.
// Compatible means same major, and v.Minor.Patch >= want.Minor.Patch
func (v Version) Compatible(want Version) bool {
	if v.Major != want.Major {
		return false
	}
	if v.Minor < want.Minor {
		return false
	}
	if v.Minor == want.Minor && v.Patch < want.Patch {
		return false
	}
	return true
}

// String returns the version as "major.minor.patch"
func (v Version) String() string {
	return strings.Join([]string{
		uintToStr(v.Major),
		uintToStr(v.Minor),
		uintToStr(v.Patch),
	}, ".")
}

func uintToStr(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// splitNamespaceVersion splits "canvas:host/api@0.1.0" into the base
// name and parsed version. Names without a parseable version return a
// nil version.
func splitNamespaceVersion(s string) (string, *Version) {
	idx := strings.LastIndex(s, "@")
	if idx < 0 {
		return s, nil
	}
	name := s[:idx]
	versionStr := s[idx+1:]
	if v, ok := ParseVersion(versionStr); ok {
		return name, &v
	}
	return s, nil
}
