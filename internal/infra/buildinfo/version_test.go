package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Errorf("Get() = %+v, want all fields populated", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Version+" ("+Commit+") built at ") {
		t.Errorf("String() = %q", s)
	}
	if !strings.HasSuffix(s, runtime.Version()) {
		t.Errorf("String() = %q, want go version suffix", s)
	}
}
