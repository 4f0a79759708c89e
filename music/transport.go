package music

// TransportState is the playback position, owned by one engine
// 0 <= BarInSection < Bars of the current section
type TransportState struct {
	Playing      bool
	SectionIndex int
	BarInSection int
	GlobalBar    int
}

// Reset returns to intro bar 0, stopped
func (t *TransportState) Reset() {
	*t = TransportState{}
}

// Advance moves one bar forward, rolling into the next section
func (t *TransportState) Advance(a Arrangement) {
	t.GlobalBar++
	t.BarInSection++
	if t.BarInSection >= a[t.SectionIndex].Bars {
		t.BarInSection = 0
		t.SectionIndex = (t.SectionIndex + 1) % len(a)
	}
}
