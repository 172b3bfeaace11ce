package thegrid

// This file contains the serial port link to the grid controller board

import (
	"net/url"
	"strconv"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"go.bug.st/serial"

	"github.com/macrodactyl/thegrid/model"
)

const defaultBaud = 115200

type serialLink struct {
	name string
	port serial.Port
}

// openSerial opens the port named by the URI path, the baud rate can be
// given using the baud query parameter
func openSerial(u *url.URL) (link Link, err errors.Error) {
	name := u.Path
	if len(name) == 0 {
		name = u.Opaque
	}
	if len(name) == 0 {
		return nil, errors.New("serial link has no port name").With("url", u.String()).With("stack", stack.Trace().TrimRuntime())
	}

	baud := defaultBaud
	if rate := u.Query().Get("baud"); len(rate) != 0 {
		b, errGo := strconv.Atoi(rate)
		if errGo != nil || b <= 0 {
			return nil, errors.New("serial link has an invalid baud rate").With("url", u.String()).With("baud", rate).With("stack", stack.Trace().TrimRuntime())
		}
		baud = b
	}

	port, errGo := serial.Open(name, &serial.Mode{BaudRate: baud})
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("port", name).With("baud", baud).With("stack", stack.Trace().TrimRuntime())
	}
	logger.Info("serial port opened", "port", name, "baud", baud)

	return &serialLink{name: name, port: port}, nil
}

func (link *serialLink) Send(packet []byte, frame *model.Frame) (err errors.Error) {
	if _, errGo := link.port.Write(packet); errGo != nil {
		return errors.Wrap(errGo).With("port", link.name).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (link *serialLink) Close() (err errors.Error) {
	if errGo := link.port.Close(); errGo != nil {
		return errors.Wrap(errGo).With("port", link.name).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
