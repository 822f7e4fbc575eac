package fetch

import "testing"

func TestNormalizeYouTubeStripsTimestampQuery(t *testing.T) {
	got := NormalizeYouTube("https://youtu.be/X?t=42")
	want := "https://youtu.be/X"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeYouTubeStripsTimeContinue(t *testing.T) {
	got := NormalizeYouTube("https://music.youtube.com/watch?v=X&time_continue=5")
	if got != "https://music.youtube.com/watch?v=X" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeNonYouTubePassesThrough(t *testing.T) {
	raw := "https://soundcloud.com/artist/track?t=42"
	if got := NormalizeYouTube(raw); got != raw {
		t.Fatalf("expected non-youtube url unchanged, got %q", got)
	}
}

func TestNormalizeStripsTimestampFragment(t *testing.T) {
	got := NormalizeYouTube("https://www.youtube.com/watch?v=X#t=30s")
	if got != "https://www.youtube.com/watch?v=X" {
		t.Fatalf("expected fragment stripped, got %q", got)
	}
}
