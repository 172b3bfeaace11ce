package thegrid

// This module wires the grid daemon together.  Frames flow from the
// scheduler into the broadcaster which passes the encoded packets to the
// hardware link and the JSON frames to the websocket viewers, the admin
// surface drives the scheduler

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

const DefaultLinkDepth = 2

type GatewayOptions struct {
	Listen      string // Address of the admin API and viewer feed, empty disables HTTP
	Link        string // Hardware link URI, see OpenLink
	LinkDepth   int    // Packets queued for the hardware before newer ones are dropped
	Kinds       []Kind // Animation implementations available to the catalog
	Catalog     string // Optional YAML catalog file
	Animation   string // Animation loaded at startup, may be empty
	Password    string // Admin password, empty disables logins
	TokenSecret string // Admin token signing secret, empty uses a random one
	Clock       Clock
}

type Gateway struct {
	link     *AsyncLink
	bcast    *Broadcaster
	registry *Registry
	sched    *Scheduler
	server   *http.Server
	listener net.Listener
	served   chan struct{}

	stopOnce sync.Once
	stopErr  errors.Error
}

// Start brings up the daemon, on failure anything already started is torn
// down again before the error is returned
func (gw *Gateway) Start(opts GatewayOptions) (err errors.Error) {
	cat, err := NewCatalog(opts.Kinds, opts.Catalog)
	if err != nil {
		return err
	}
	gw.registry = NewRegistry(cat.Definitions)
	if err = gw.registry.Reload(); err != nil {
		return err
	}

	link, err := OpenLink(opts.Link)
	if err != nil {
		return err
	}
	depth := opts.LinkDepth
	if depth < 1 {
		depth = DefaultLinkDepth
	}
	gw.link = NewAsyncLink(link, depth)
	gw.bcast = NewBroadcaster(gw.link)
	gw.sched = StartScheduler(gw.registry, NewUIState(), gw.bcast, opts.Clock)

	if len(opts.Animation) != 0 {
		if err = gw.sched.Load(opts.Animation); err != nil {
			gw.sched.Shutdown()
			return err
		}
	}

	if len(opts.Listen) == 0 {
		return nil
	}

	secret := []byte(opts.TokenSecret)
	if len(secret) == 0 {
		if secret, err = NewSecret(); err != nil {
			gw.sched.Shutdown()
			return err
		}
	}
	if len(opts.Password) == 0 {
		logger.Warn("no admin password has been set, logins are disabled")
	}

	listener, errGo := net.Listen("tcp", opts.Listen)
	if errGo != nil {
		gw.sched.Shutdown()
		return errors.Wrap(errGo).With("listen", opts.Listen).With("stack", stack.Trace().TrimRuntime())
	}
	gw.listener = listener

	admin := NewAdmin(gw.sched, &PasswordAuthorizer{Password: opts.Password}, secret, ViewerHandler(gw.bcast))
	gw.server = &http.Server{
		Handler:           admin.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	gw.served = make(chan struct{})
	go func() {
		defer close(gw.served)
		if errGo := gw.server.Serve(listener); errGo != nil && errGo != http.ErrServerClosed {
			logger.Warn("admin server stopped", "error", errGo.Error())
		}
	}()

	logger.Info("grid started", "listen", listener.Addr().String(), "link", opts.Link, "animations", len(gw.registry.Names()))
	return nil
}

// Addr is the address the admin server is listening on, empty when HTTP is
// disabled
func (gw *Gateway) Addr() string {
	if gw.listener == nil {
		return ""
	}
	return gw.listener.Addr().String()
}

func (gw *Gateway) Scheduler() *Scheduler {
	return gw.sched
}

func (gw *Gateway) Broadcaster() *Broadcaster {
	return gw.bcast
}

// Shutdown stops accepting admin requests, then stops the scheduler which
// releases the animation and closes the viewers and hardware link
func (gw *Gateway) Shutdown(ctx context.Context) (err errors.Error) {
	gw.stopOnce.Do(func() {
		if gw.server != nil {
			if errGo := gw.server.Shutdown(ctx); errGo != nil {
				gw.stopErr = errors.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
			}
			<-gw.served
		}
		if gw.sched != nil {
			if err := gw.sched.Shutdown(); err != nil && gw.stopErr == nil {
				gw.stopErr = err
			}
		}
		stats := Stats{}
		if gw.bcast != nil {
			stats = gw.bcast.Stats()
		}
		logger.Info("grid stopped", "published", stats.Published, "link_errors", stats.LinkErrors, "viewer_drops", stats.ViewerDrops)
	})
	return gw.stopErr
}
