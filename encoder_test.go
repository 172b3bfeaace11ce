package thegrid

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/macrodactyl/thegrid/model"
)

func randomFrame(rnd *rand.Rand) (frame *model.Frame) {
	frame = model.Blank()
	for row := range frame {
		for col := range frame[row] {
			// Mostly dark poles so that both bit values are exercised
			if rnd.Intn(3) == 0 {
				for ch := range frame[row][col] {
					frame[row][col][ch] = uint8(rnd.Intn(256))
				}
			}
		}
	}
	return frame
}

func TestEncodeLength(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	frames := []*model.Frame{model.Blank(), randomFrame(rnd), randomFrame(rnd)}
	full := model.Blank()
	full.Fill(model.Color{R: 255, G: 255, B: 255}, model.Color{R: 255, G: 255, B: 255})
	frames = append(frames, full)

	for _, frame := range frames {
		packet := Encode(frame)
		if len(packet) != PacketLen || PacketLen != 404 {
			t.Fatalf("expected a 404 byte packet, got %d", len(packet))
		}
		if !bytes.Equal(packet[:6], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
			t.Fatalf("bad sync %x", packet[:6])
		}
		if packet[6] != 0xFC {
			t.Fatalf("bad command byte %x", packet[6])
		}
		for i, b := range packet[14:] {
			if b != 0 {
				t.Fatalf("padding byte %d is %x", i, b)
			}
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i != 50; i++ {
		frame := randomFrame(rnd)
		cpy := *frame
		if !bytes.Equal(Encode(frame), Encode(&cpy)) {
			t.Fatal("the same frame produced different packets")
		}
	}
}

func TestEncodeBitLayout(t *testing.T) {
	frame := model.Blank()
	// Grid row 6 is sent first, grid column 6 is bit 0
	frame.Set(6, 6, model.Color{R: 1}, model.Color{})
	frame.Set(0, 0, model.Color{G: 1}, model.Color{})
	frame.Set(3, 5, model.Color{}, model.Color{R: 9})

	packet := Encode(frame)
	rows := packet[7:14]
	expected := []byte{0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x40}
	if !bytes.Equal(rows, expected) {
		t.Fatalf("expected rows %x, got %x", expected, rows)
	}
}

func TestEncodeOffPredicate(t *testing.T) {
	cases := []struct {
		cell model.Cell
		lit  bool
	}{
		{model.Cell{0, 0, 0, 0, 0, 1}, false},
		{model.Cell{0, 0, 1, 0, 0, 0}, false},
		{model.Cell{1, 0, 0, 0, 0, 0}, true},
		{model.Cell{0, 0, 0, 0, 1, 0}, true},
		{model.Cell{0, 0, 1, 0, 0, 1}, true},
	}
	for _, tc := range cases {
		frame := model.Blank()
		frame[6][6] = tc.cell
		lit := Encode(frame)[7]&0x01 != 0
		if lit != tc.lit {
			t.Errorf("%v: expected lit=%v", tc.cell, tc.lit)
		}
	}
}

func TestDecode(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i != 20; i++ {
		frame := randomFrame(rnd)
		lit, err := Decode(Encode(frame))
		if err != nil {
			t.Fatal(err.Error())
		}
		if lit != frame.Lit() {
			t.Fatal("decoded lit map does not match the frame")
		}
	}

	if _, err := Decode(make([]byte, 10)); err == nil {
		t.Fatal("short packet was accepted")
	}
	packet := Encode(model.Blank())
	packet[6] = 0x01
	if _, err := Decode(packet); err == nil {
		t.Fatal("unknown command was accepted")
	}
	packet = Encode(model.Blank())
	packet[0] = 0
	if _, err := Decode(packet); err == nil {
		t.Fatal("missing sync was accepted")
	}
}
