package main

// gridview connects to the websocket feed of a running grid daemon and
// draws the frames being played in the terminal

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/karlmutch/envflag"

	"golang.org/x/net/websocket"

	"github.com/macrodactyl/thegrid/model"
	"github.com/macrodactyl/thegrid/version"
)

var (
	logger = logxi.New("gridview")

	verbose = flag.Bool("v", false, "When enabled will print internal logging for this tool")
	server  = flag.String("server", "ws://localhost:8080/ws", "Websocket feed of the grid daemon")
	origin  = flag.String("origin", "http://localhost/", "Origin presented to the daemon")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       thegrid → websocket → terminal (gridview)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "gridview draws the live frames of a grid daemon in a 24 bit colour terminal")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

// watch draws frames until the feed fails or quitC is closed
func watch(ws *websocket.Conn, errorC chan<- errors.Error, quitC <-chan struct{}) {
	msg := ""
	for {
		if errGo := websocket.Message.Receive(ws, &msg); errGo != nil {
			select {
			case errorC <- errors.Wrap(errGo).With("server", *server).With("stack", stack.Trace().TrimRuntime()):
			case <-quitC:
			}
			return
		}

		frame := &model.Frame{}
		if errGo := json.Unmarshal([]byte(msg), frame); errGo != nil {
			logger.Debug("frame skipped", "error", errGo.Error())
			continue
		}
		fmt.Fprint(os.Stdout, home+render(frame))
	}
}

func main() {

	if !flag.Parsed() {
		envflag.Parse()
	}

	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
	}

	ws, errGo := websocket.Dial(*server, "", *origin)
	if errGo != nil {
		logger.Error("could not connect", "server", *server, "error", errGo.Error())
		os.Exit(-1)
	}
	defer ws.Close()

	errorC := make(chan errors.Error, 1)
	quitC := make(chan struct{})
	defer close(quitC)

	go watch(ws, errorC, quitC)

	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)

	// Clear the screen, frames are then drawn from the top left corner
	fmt.Fprint(os.Stdout, "\x1b[2J")

	select {
	case err := <-errorC:
		fmt.Fprint(os.Stdout, reset)
		logger.Warn("feed lost", "error", err.Error())
	case <-stopC:
		fmt.Fprint(os.Stdout, reset)
	}
}
