package model

import (
	"math"
	"testing"
)

func channelWith(ped int, samples map[int]uint16) PadeChannel {
	ch := PadeChannel{Pedestal: ped}
	for i := range ch.Wform {
		ch.Wform[i] = uint16(ped)
	}
	for i, v := range samples {
		ch.Wform[i] = v
	}
	return ch
}

func TestPadeChannelPeak(t *testing.T) {
	t.Parallel()

	ch := channelWith(100, map[int]uint16{40: 350, 41: 300})
	if got := ch.Max(); got != 350 {
		t.Fatalf("Max = %d, want 350", got)
	}
	if got := ch.Peak(); got != 250 {
		t.Fatalf("Peak = %v, want 250", got)
	}

	low := channelWith(100, nil)
	for i := range low.Wform {
		low.Wform[i] = 90
	}
	if got := low.Peak(); got != 0 {
		t.Fatalf("Peak below pedestal = %v, want 0", got)
	}
}

func TestPadeChannelNoise(t *testing.T) {
	t.Parallel()

	ch := channelWith(100, map[int]uint16{0: 102, 1: 98})
	want := math.Sqrt(8.0 / 4.0)
	if got := ch.Noise(4); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Noise(4) = %v, want %v", got, want)
	}
	if got := ch.Noise(0); got != 0 {
		t.Fatalf("Noise(0) = %v, want 0", got)
	}
}

func TestEventMaxPadeADC(t *testing.T) {
	t.Parallel()

	ev := &Event{Channels: []PadeChannel{
		channelWith(100, map[int]uint16{10: 600}),
		channelWith(50, map[int]uint16{20: 800}),
	}}
	if got := ev.MaxPadeADC(); got != 750 {
		t.Fatalf("MaxPadeADC = %v, want 750", got)
	}
	if got := ev.SumPeakADC(); got != 1250 {
		t.Fatalf("SumPeakADC = %v, want 1250", got)
	}

	empty := &Event{}
	if got := empty.MaxPadeADC(); got != 0 {
		t.Fatalf("MaxPadeADC on empty event = %v, want 0", got)
	}
}

func TestOptionsCloneIsDeep(t *testing.T) {
	t.Parallel()

	o := NewOptions()
	o.BoardNumbers = []int{112, 113}
	o.ToggleBoard(112)

	c := o.Clone()
	c.ToggleBoard(112)
	c.BoardNumbers[0] = 999

	if o.BoardVisible(112) {
		t.Fatal("original board 112 should stay hidden after toggling the clone")
	}
	if !c.BoardVisible(112) {
		t.Fatal("clone board 112 should be visible")
	}
	if o.BoardNumbers[0] != 112 {
		t.Fatalf("original board numbers mutated: %v", o.BoardNumbers)
	}
}
