package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/karlmutch/envflag"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/patterns"
	"github.com/macrodactyl/thegrid/version"
)

var (
	logger = logxi.New("thegrid")

	verbose     = flag.Bool("v", false, "When enabled will print internal logging for this tool")
	listen      = flag.String("listen", ":8080", "Address of the admin API and the websocket viewer feed, empty disables both")
	link        = flag.String("link", "", "Hardware link, one of serial:///dev/ttyUSB0?baud=115200, tcp://host:port or opc://host:port, empty runs without hardware")
	linkDepth   = flag.Int("link-depth", thegrid.DefaultLinkDepth, "Number of packets queued for the hardware before frames are dropped")
	catalog     = flag.String("catalog", "", "Optional YAML animation catalog, re-read on every reload")
	animation   = flag.String("animation", "", "Animation to start playing immediately")
	password    = flag.String("password", "", "Admin password, when empty admin logins are refused")
	tokenSecret = flag.String("token-secret", "", "Secret used to sign admin tokens, when empty a random secret is used for each run")
	logFile     = flag.String("log-file", "", "Write logs to this file, rotated as it grows, rather than stderr")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       animations → serial/TCP/OPC grid (thegrid)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "thegrid plays animations on a 7x7 grid of light poles and streams the frames to web viewers")
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

func main() {

	// Parse the CLI flags
	if !flag.Parsed() {
		envflag.Parse()
	}

	// Logs go to a rotated file when asked, the grid is often run unattended
	if len(*logFile) != 0 {
		rotated := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
		defer rotated.Close()

		logger = logxi.NewLogger(logxi.NewConcurrentWriter(rotated), "thegrid")
	}

	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
	}
	thegrid.SetLogger(logger)

	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s\n", os.Args[0], version.BuildTime, version.GitHash))

	gw := &thegrid.Gateway{}
	err := gw.Start(thegrid.GatewayOptions{
		Listen:      *listen,
		Link:        *link,
		LinkDepth:   *linkDepth,
		Kinds:       patterns.Kinds(),
		Catalog:     *catalog,
		Animation:   *animation,
		Password:    *password,
		TokenSecret: *tokenSecret,
	})
	if err != nil {
		logger.Error("grid could not be started", "error", err.Error())
		os.Exit(-1)
	}

	stopC := make(chan os.Signal, 1)
	signal.Notify(stopC, os.Interrupt, syscall.SIGTERM)
	sig := <-stopC
	logger.Info("stopping", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = gw.Shutdown(ctx); err != nil {
		logger.Warn("grid did not stop cleanly", "error", err.Error())
	}
}
