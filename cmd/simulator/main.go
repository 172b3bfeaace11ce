package main

// The simulator stands in for the grid controller.  It accepts the raw packet
// stream the daemon sends over a tcp:// link, decodes every packet and shows
// the poles that would be lit, both in its log and over HTTP

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

var (
	grid   = flag.String("grid", ":7777", "Address accepting the packet stream from the grid daemon")
	listen = flag.String("listen", ":8181", "Address serving the current grid state as text")
	every  = flag.Int("every", 100, "Log one packet in this many")

	// create Logger interface
	logW = logxi.NewLogger(logxi.NewConcurrentWriter(os.Stdout), "grid-simulator")
)

type gridState struct {
	lit      [model.Rows][model.Cols]bool
	packets  uint64
	lastSeen time.Time
	sync.Mutex
}

var state = gridState{}

func (gs *gridState) update(lit [model.Rows][model.Cols]bool) (count uint64) {
	gs.Lock()
	defer gs.Unlock()
	gs.lit = lit
	gs.packets++
	gs.lastSeen = time.Now()
	return gs.packets
}

func (gs *gridState) String() string {
	gs.Lock()
	defer gs.Unlock()
	return fmt.Sprintf("%d packets, last at %s\n%s", gs.packets, gs.lastSeen.Format(time.RFC3339Nano), draw(gs.lit))
}

// draw shows lit poles as # and dark poles as .
func draw(lit [model.Rows][model.Cols]bool) string {
	out := strings.Builder{}
	for _, row := range lit {
		for _, on := range row {
			if on {
				out.WriteString("#")
			} else {
				out.WriteString(".")
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}

// readPackets decodes fixed size packets from the stream until it ends, a
// packet that fails to decode ends the stream as the framing has been lost
func readPackets(r io.Reader, handle func(lit [model.Rows][model.Cols]bool)) (err errors.Error) {
	buf := make([]byte, thegrid.PacketLen)
	for {
		if _, errGo := io.ReadFull(r, buf); errGo != nil {
			if errGo == io.EOF {
				return nil
			}
			return errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		}
		lit, err := thegrid.Decode(buf)
		if err != nil {
			return err
		}
		handle(lit)
	}
}

func serveGrid(conn net.Conn) {
	defer conn.Close()

	logW.Info("grid daemon connected", "remote", conn.RemoteAddr().String())

	err := readPackets(conn, func(lit [model.Rows][model.Cols]bool) {
		if count := state.update(lit); *every > 0 && count%uint64(*every) == 0 {
			logW.Debug(fmt.Sprintf("packet %d\n%s", count, draw(lit)))
		}
	})
	if err != nil {
		logW.Warn("grid stream failed", "remote", conn.RemoteAddr().String(), "error", err.Error())
		return
	}
	logW.Info("grid daemon disconnected", "remote", conn.RemoteAddr().String())
}

func serveHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, state.String())
}

func main() {

	flag.Parse()

	listener, errGo := net.Listen("tcp", *grid)
	if errGo != nil {
		logxi.Fatal(errGo.Error())
	}

	go func() {
		http.HandleFunc("/", serveHandler)
		if errGo := http.ListenAndServe(*listen, nil); errGo != nil {
			logW.Warn(errGo.Error())
		}
	}()

	logW.Info("simulator ready", "grid", *grid, "listen", *listen)

	for {
		conn, errGo := listener.Accept()
		if errGo != nil {
			logW.Warn("accept failed", "error", errGo.Error())
			return
		}
		go serveGrid(conn)
	}
}
