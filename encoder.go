package thegrid

// This file contains the encoder for the packets understood by the grid
// hardware controller.
//
// A packet is 6 sync bytes of 0xFF followed by a 398 byte body.  The body is
// the 0xFC command byte, one byte per row holding a bit per lit pole and
// zero padding.  Rows and columns are both sent in reverse order, row byte r
// carries grid row 6-r with bit c set for grid column 6-c.

import (
	"bytes"
	"fmt"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

const (
	SyncLen    = 6
	SyncByte   = 0xFF
	CmdByte    = 0xFC
	BodyLen    = 398
	PacketLen  = SyncLen + BodyLen
	rowsOffset = SyncLen + 1
)

// Encode converts a frame into the fixed length hardware packet
func Encode(frame *model.Frame) (packet []byte) {
	packet = make([]byte, PacketLen)
	for i := 0; i != SyncLen; i++ {
		packet[i] = SyncByte
	}
	packet[SyncLen] = CmdByte

	for row := 0; row != model.Rows; row++ {
		rowByte := byte(0)
		for col := 0; col != model.Cols; col++ {
			if !frame[model.Rows-1-row][model.Cols-1-col].Off() {
				rowByte |= 1 << uint(col)
			}
		}
		packet[rowsOffset+row] = rowByte
	}
	return packet
}

// Decode recovers which poles are lit from a hardware packet
func Decode(packet []byte) (lit [model.Rows][model.Cols]bool, err errors.Error) {
	if len(packet) != PacketLen {
		return lit, errors.New("packet has the wrong length").With("length", len(packet)).With("stack", stack.Trace().TrimRuntime())
	}
	if !bytes.Equal(packet[:SyncLen], bytes.Repeat([]byte{SyncByte}, SyncLen)) {
		return lit, errors.New("packet sync is missing").With("stack", stack.Trace().TrimRuntime())
	}
	if packet[SyncLen] != CmdByte {
		return lit, errors.New("packet command is not recognized").With("cmd", fmt.Sprintf("0x%02X", packet[SyncLen])).With("stack", stack.Trace().TrimRuntime())
	}
	for row := 0; row != model.Rows; row++ {
		rowByte := packet[rowsOffset+row]
		for col := 0; col != model.Cols; col++ {
			lit[model.Rows-1-row][model.Cols-1-col] = rowByte&(1<<uint(col)) != 0
		}
	}
	return lit, nil
}
