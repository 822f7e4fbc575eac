package encoder

import "testing"

func TestBuildArgsStreamInput(t *testing.T) {
	args := buildArgs("128k", StreamInput(nil))
	if !contains(args, "pipe:0") {
		t.Fatalf("expected stream input to read from pipe:0, got %v", args)
	}
	if !contains(args, "128k") {
		t.Fatalf("expected bitrate in args, got %v", args)
	}
}

func TestBuildArgsURLInputWithHeaders(t *testing.T) {
	args := buildArgs("128k", URLInput("https://example.com/a.m3u8", map[string]string{"User-Agent": "test"}, true))
	if !contains(args, "-protocol_whitelist") {
		t.Fatalf("expected HLS protocol whitelist for IsHLS input, got %v", args)
	}
	if !contains(args, "-headers") {
		t.Fatalf("expected -headers flag when headers are present, got %v", args)
	}
	if !contains(args, "https://example.com/a.m3u8") {
		t.Fatalf("expected URL to be passed as -i, got %v", args)
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
