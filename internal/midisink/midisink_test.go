package midisink

import "testing"

func TestChannelForPerTrackWrapsModSixteen(t *testing.T) {
	s := New(PerTrack, 0)
	defer s.Shutdown()
	cases := map[int]uint8{1: 1, 16: 0, 17: 1, 0: 0}
	for track, want := range cases {
		if got := s.ChannelFor(track); got != want {
			t.Fatalf("ChannelFor(%d) = %d, want %d", track, got, want)
		}
	}
}

func TestChannelForFixedIgnoresTrack(t *testing.T) {
	s := New(Fixed, 9)
	defer s.Shutdown()
	for _, track := range []int{1, 2, 16, 99} {
		if got := s.ChannelFor(track); got != 9 {
			t.Fatalf("ChannelFor(%d) under Fixed policy = %d, want 9", track, got)
		}
	}
}
