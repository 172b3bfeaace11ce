package main

import (
	"bytes"
	"testing"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

func TestReadPackets(t *testing.T) {
	first := model.Blank()
	first.Set(0, 0, model.Color{R: 1}, model.Color{})
	second := model.Blank()
	second.Fill(model.Color{G: 1}, model.Color{G: 1})

	stream := &bytes.Buffer{}
	stream.Write(thegrid.Encode(first))
	stream.Write(thegrid.Encode(second))

	seen := [][model.Rows][model.Cols]bool{}
	err := readPackets(stream, func(lit [model.Rows][model.Cols]bool) {
		seen = append(seen, lit)
	})
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(seen))
	}
	if seen[0] != first.Lit() || seen[1] != second.Lit() {
		t.Fatal("decoded packets do not match the frames sent")
	}
	if draw(seen[0])[:2] != "#." {
		t.Fatalf("unexpected drawing\n%s", draw(seen[0]))
	}
}

func TestReadPacketsLosesFraming(t *testing.T) {
	packet := thegrid.Encode(model.Blank())

	truncated := bytes.NewReader(packet[:thegrid.PacketLen-1])
	if err := readPackets(truncated, func([model.Rows][model.Cols]bool) {}); err == nil {
		t.Fatal("truncated packet accepted")
	}

	shifted := append([]byte{0}, packet...)
	if err := readPackets(bytes.NewReader(shifted), func([model.Rows][model.Cols]bool) {}); err == nil {
		t.Fatal("misaligned stream accepted")
	}
}
