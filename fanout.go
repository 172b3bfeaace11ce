package thegrid

// This file implements the broadcast of frames to the hardware link and to
// every connected viewer.
//
// Each viewer has a bounded queue drained by its own goroutine so that a
// slow or stalled viewer only ever loses its own frames, viewers whose
// writes fail are groomed out of the subscriptions

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/go-stack/stack"
	"github.com/google/uuid"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

const viewerQueueDepth = 4

// ViewerConn is a single live viewer connection, one text message is sent
// per frame
type ViewerConn interface {
	Send(msg string) (errGo error)
	Close() (errGo error)
}

type viewer struct {
	id    string
	conn  ViewerConn
	sendC chan string
	once  sync.Once
}

func (v *viewer) stop() {
	v.once.Do(func() {
		close(v.sendC)
	})
}

type Stats struct {
	Published      uint64 `json:"published"`
	LinkErrors     uint64 `json:"link_errors"`
	ViewerDrops    uint64 `json:"viewer_drops"`
	ViewersGroomed uint64 `json:"viewers_groomed"`
	Viewers        int    `json:"viewers"`
}

type Broadcaster struct {
	link Link

	viewers map[string]*viewer
	closed  bool
	wg      sync.WaitGroup
	sync.Mutex

	published   uint64
	linkErrors  uint64
	viewerDrops uint64
	groomed     uint64

	closeOnce sync.Once
}

func NewBroadcaster(link Link) (b *Broadcaster) {
	if link == nil {
		link = &discardLink{}
	}
	return &Broadcaster{
		link:    link,
		viewers: map[string]*viewer{},
	}
}

// Subscribe adds a viewer connection and returns the id used to remove it
func (b *Broadcaster) Subscribe(conn ViewerConn) (id string, err errors.Error) {
	v := &viewer{
		id:    uuid.New().String(),
		conn:  conn,
		sendC: make(chan string, viewerQueueDepth),
	}

	b.Lock()
	defer b.Unlock()

	if b.closed {
		return "", errors.New("broadcaster closed").With("stack", stack.Trace().TrimRuntime())
	}
	b.viewers[v.id] = v

	b.wg.Add(1)
	go b.pump(v)

	logger.Debug("viewer subscribed", "viewer", v.id, "viewers", len(b.viewers))
	return v.id, nil
}

// pump writes queued messages to a single viewer until its queue is closed or
// a write fails
func (b *Broadcaster) pump(v *viewer) {
	defer b.wg.Done()
	defer v.conn.Close()

	for msg := range v.sendC {
		if errGo := v.conn.Send(msg); errGo != nil {
			atomic.AddUint64(&b.groomed, 1)
			logger.Debug("viewer dropped failed to send", "viewer", v.id, "error", errGo.Error())
			b.Unsubscribe(v.id)
			return
		}
	}
}

// Unsubscribe removes a viewer, unknown ids are ignored
func (b *Broadcaster) Unsubscribe(id string) {
	b.Lock()
	v, isPresent := b.viewers[id]
	delete(b.viewers, id)
	b.Unlock()

	if isPresent {
		v.stop()
	}
}

func (b *Broadcaster) Viewers() int {
	b.Lock()
	defer b.Unlock()
	return len(b.viewers)
}

// Publish delivers the frame to the hardware link and offers it to every
// viewer, it never waits on any consumer
func (b *Broadcaster) Publish(frame *model.Frame) {
	atomic.AddUint64(&b.published, 1)

	if err := b.link.Send(Encode(frame), frame); err != nil {
		atomic.AddUint64(&b.linkErrors, 1)
		logger.Warn("hardware link unavailable", "error", err.Error())
	}

	byt, errGo := json.Marshal(frame)
	if errGo != nil {
		logger.Warn("frame could not be serialized", "error", errGo.Error())
		return
	}
	msg := string(byt)

	b.Lock()
	defer b.Unlock()

	for _, v := range b.viewers {
		select {
		case v.sendC <- msg:
		default:
			atomic.AddUint64(&b.viewerDrops, 1)
		}
	}
}

func (b *Broadcaster) Stats() (stats Stats) {
	return Stats{
		Published:      atomic.LoadUint64(&b.published),
		LinkErrors:     atomic.LoadUint64(&b.linkErrors),
		ViewerDrops:    atomic.LoadUint64(&b.viewerDrops),
		ViewersGroomed: atomic.LoadUint64(&b.groomed),
		Viewers:        b.Viewers(),
	}
}

// Close disconnects every viewer and closes the hardware link, it is safe to
// call more than once
func (b *Broadcaster) Close() (err errors.Error) {
	b.closeOnce.Do(func() {
		b.Lock()
		b.closed = true
		viewers := b.viewers
		b.viewers = map[string]*viewer{}
		b.Unlock()

		// Closing the connections unblocks any writes stalled on a viewer
		for _, v := range viewers {
			v.stop()
			v.conn.Close()
		}
		b.wg.Wait()

		err = b.link.Close()
	})
	return err
}
