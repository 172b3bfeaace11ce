package thegrid

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

// recordingLink is a hardware link that remembers every packet, optionally
// failing or blocking
type recordingLink struct {
	packets chan []byte
	fail    bool
	block   chan struct{}
	closed  chan struct{}
}

func newRecordingLink() (link *recordingLink) {
	return &recordingLink{
		packets: make(chan []byte, 100),
		closed:  make(chan struct{}),
	}
}

func (link *recordingLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	if link.block != nil {
		<-link.block
	}
	if link.fail {
		return errors.New("link failure").With("stack", stack.Trace().TrimRuntime())
	}
	link.packets <- packet
	return nil
}

func (link *recordingLink) Close() (err errors.Error) {
	close(link.closed)
	return nil
}

func TestOpenLinkSchemes(t *testing.T) {
	link, err := OpenLink("")
	if err != nil {
		t.Fatal(err.Error())
	}
	if err = link.Send(Encode(model.Blank()), model.Blank()); err != nil {
		t.Fatal(err.Error())
	}
	link.Close()

	if _, err = OpenLink("carrier-pigeon://loft"); err == nil {
		t.Fatal("unknown scheme was accepted")
	}
	if _, err = OpenLink("serial://"); err == nil {
		t.Fatal("serial link without a port was accepted")
	}
	if _, err = OpenLink("serial:///dev/ttyUSB0?baud=fast"); err == nil {
		t.Fatal("serial link with a bad baud rate was accepted")
	}
}

func TestTCPLink(t *testing.T) {
	ln, errGo := net.Listen("tcp", "127.0.0.1:0")
	if errGo != nil {
		t.Fatal(errGo)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, errGo := ln.Accept()
		if errGo != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, PacketLen)
		if _, errGo = io.ReadFull(conn, buf); errGo == nil {
			received <- buf
		}
	}()

	link, err := OpenLink("tcp://" + ln.Addr().String())
	if err != nil {
		t.Fatal(err.Error())
	}
	defer link.Close()

	frame := model.Blank()
	frame.Set(2, 2, model.Color{R: 200}, model.Color{})
	packet := Encode(frame)
	if err = link.Send(packet, frame); err != nil {
		t.Fatal(err.Error())
	}

	select {
	case buf := <-received:
		if !bytes.Equal(buf, packet) {
			t.Fatal("simulator received a different packet")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for the packet")
	}
}

func TestAsyncLinkDoesNotBlock(t *testing.T) {
	inner := newRecordingLink()
	inner.block = make(chan struct{})
	async := NewAsyncLink(inner, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i != 10; i++ {
			async.Send([]byte{byte(i)}, model.Blank())
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on a stalled link")
	}
	if async.Dropped() == 0 {
		t.Fatal("expected frames to be dropped")
	}

	close(inner.block)
	async.Close()

	select {
	case <-inner.closed:
	default:
		t.Fatal("inner link was not closed")
	}
	if err := async.Send([]byte{0}, model.Blank()); err == nil {
		t.Fatal("send after close succeeded")
	}
	// Close is idempotent
	async.Close()
}

func TestAsyncLinkCountsFailures(t *testing.T) {
	inner := newRecordingLink()
	inner.fail = true
	async := NewAsyncLink(inner, 4)

	async.Send([]byte{1}, model.Blank())
	async.Send([]byte{2}, model.Blank())
	async.Close()

	if async.Failed() != 2 {
		t.Fatalf("expected 2 failures, got %d", async.Failed())
	}
}

func TestOPCPixelLayout(t *testing.T) {
	frame := model.Blank()
	frame.Set(0, 1, model.Color{R: 1}, model.Color{G: 2})
	frame.Set(6, 6, model.Color{B: 3}, model.Color{R: 4})

	pixels := opcPixelColors(frame)
	if len(pixels) != opcPixels || opcPixels != 98 {
		t.Fatalf("expected 98 pixels, got %d", len(pixels))
	}
	if pixels[2] != (model.Color{R: 1}) || pixels[3] != (model.Color{G: 2}) {
		t.Fatalf("second pole on the first row misplaced %v %v", pixels[2], pixels[3])
	}
	if pixels[96] != (model.Color{B: 3}) || pixels[97] != (model.Color{R: 4}) {
		t.Fatalf("last pole misplaced %v %v", pixels[96], pixels[97])
	}
	if pixels[0] != (model.Color{}) {
		t.Fatal("unexpected color on the first pole")
	}
	if opcMessage(frame) == nil {
		t.Fatal("no OPC message")
	}
}
