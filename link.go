package thegrid

// This file contains the hardware link abstraction along with the
// asynchronous wrapper that prevents a slow device from stalling the frame
// loop
//
// Links are selected using a URI, supported schemes are
//
//	serial:///dev/ttyUSB0?baud=115200   the grid controller on a serial port
//	tcp://localhost:7000                raw packets to the grid simulator
//	opc://localhost:7890                pole colors to an Open Pixel Control server
//
// An empty URI results in a link that discards every frame

import (
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

// Link is a single hardware endpoint that frames are written to. Links that
// only need the wire packet can ignore the frame and vice versa
type Link interface {
	Send(packet []byte, frame *model.Frame) (err errors.Error)
	Close() (err errors.Error)
}

// OpenLink creates the link described by the URI
func OpenLink(uri string) (link Link, err errors.Error) {
	if len(uri) == 0 {
		return &discardLink{}, nil
	}

	u, errGo := url.Parse(uri)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("url", uri).With("stack", stack.Trace().TrimRuntime())
	}

	switch u.Scheme {
	case "serial":
		return openSerial(u)
	case "tcp":
		return openTCP(u)
	case "opc":
		return openOPC(u)
	default:
		errGo := fmt.Errorf("unknown scheme %s for the grid hardware link", u.Scheme)
		return nil, errors.Wrap(errGo).With("url", uri).With("stack", stack.Trace().TrimRuntime())
	}
}

type discardLink struct{}

func (*discardLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	return nil
}

func (*discardLink) Close() (err errors.Error) {
	return nil
}

type tcpLink struct {
	addr string
	conn net.Conn
}

func openTCP(u *url.URL) (link Link, err errors.Error) {
	conn, errGo := net.DialTimeout("tcp", u.Host, 5*time.Second)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("url", u.String()).With("stack", stack.Trace().TrimRuntime())
	}
	return &tcpLink{addr: u.Host, conn: conn}, nil
}

func (link *tcpLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	link.conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, errGo := link.conn.Write(packet); errGo != nil {
		return errors.Wrap(errGo).With("addr", link.addr).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (link *tcpLink) Close() (err errors.Error) {
	if errGo := link.conn.Close(); errGo != nil {
		return errors.Wrap(errGo).With("addr", link.addr).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

type linkMsg struct {
	packet []byte
	frame  *model.Frame
}

// AsyncLink queues frames for a link and writes them from its own goroutine.
// When the queue is full the newest frame is dropped rather than blocking
// the caller
type AsyncLink struct {
	link    Link
	queue   chan linkMsg
	dropped uint64
	failed  uint64
	done    chan struct{}
	once    sync.Once
	closeMu sync.RWMutex
	closed  bool
}

func NewAsyncLink(link Link, depth int) (async *AsyncLink) {
	if depth < 1 {
		depth = 1
	}
	async = &AsyncLink{
		link:  link,
		queue: make(chan linkMsg, depth),
		done:  make(chan struct{}),
	}
	go async.run()
	return async
}

func (async *AsyncLink) run() {
	defer close(async.done)
	for msg := range async.queue {
		if err := async.link.Send(msg.packet, msg.frame); err != nil {
			atomic.AddUint64(&async.failed, 1)
			logger.Warn("hardware link write failed", "error", err.Error())
		}
	}
}

// Send queues the frame, it never blocks
func (async *AsyncLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	async.closeMu.RLock()
	defer async.closeMu.RUnlock()

	if async.closed {
		return errors.New("hardware link closed").With("stack", stack.Trace().TrimRuntime())
	}

	select {
	case async.queue <- linkMsg{packet: packet, frame: frame}:
	default:
		atomic.AddUint64(&async.dropped, 1)
	}
	return nil
}

// Dropped is the number of frames discarded because the link was busy
func (async *AsyncLink) Dropped() uint64 {
	return atomic.LoadUint64(&async.dropped)
}

// Failed is the number of frames the underlying link reported errors for
func (async *AsyncLink) Failed() uint64 {
	return atomic.LoadUint64(&async.failed)
}

// Close waits for queued frames to be written and then closes the link
func (async *AsyncLink) Close() (err errors.Error) {
	async.once.Do(func() {
		async.closeMu.Lock()
		async.closed = true
		close(async.queue)
		async.closeMu.Unlock()

		<-async.done
		err = async.link.Close()
	})
	return err
}
