package thegrid

// This file contains the Open Pixel Control link used by fadecandy based
// rigs and by the OPC visualisers when the physical grid is not available.
//
// Every pole is sent as two pixels, color A followed by color B, and poles
// are laid out row by row on channel 0

import (
	"net/url"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/kellydunn/go-opc"

	"github.com/macrodactyl/thegrid/model"
)

const (
	opcChannel     = 0
	pixelsPerPole  = 2
	opcPixels      = model.Rows * model.Cols * pixelsPerPole
	opcDefaultPort = "7890"
)

type opcLink struct {
	server string
	oc     *opc.Client
}

func openOPC(u *url.URL) (link Link, err errors.Error) {
	server := u.Host
	if len(u.Port()) == 0 {
		server = u.Hostname() + ":" + opcDefaultPort
	}

	oc := opc.NewClient()
	if errGo := oc.Connect("tcp", server); errGo != nil {
		return nil, errors.Wrap(errGo).With("url", u.String()).With("stack", stack.Trace().TrimRuntime())
	}
	logger.Info("opc server connected", "server", server)

	return &opcLink{server: server, oc: oc}, nil
}

// opcPixelColors lays out the poles row by row, two pixels per pole
func opcPixelColors(frame *model.Frame) (pixels []model.Color) {
	pixels = make([]model.Color, 0, opcPixels)
	for row := range frame {
		for col := range frame[row] {
			pixels = append(pixels, frame[row][col].A(), frame[row][col].B())
		}
	}
	return pixels
}

func opcMessage(frame *model.Frame) (m *opc.Message) {
	m = opc.NewMessage(opcChannel)
	m.SetLength(uint16(opcPixels * 3))

	for i, c := range opcPixelColors(frame) {
		m.SetPixelColor(i, c.R, c.G, c.B)
	}
	return m
}

func (link *opcLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	if errGo := link.oc.Send(opcMessage(frame)); errGo != nil {
		return errors.Wrap(errGo).With("server", link.server).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// Close is a no-op, the OPC client has no means of closing its connection
// so it is released with the process
func (link *opcLink) Close() (err errors.Error) {
	return nil
}
