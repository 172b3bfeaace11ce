package main

// This file renders frames to an ANSI terminal, each pole is drawn as two
// blocks showing colour A and colour B using 24 bit colour escapes

import (
	"fmt"
	"strings"

	"github.com/macrodactyl/thegrid/model"
)

const (
	home  = "\x1b[H"
	reset = "\x1b[0m"
	dark  = " . "
)

func block(c model.Color) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm█", c.R, c.G, c.B)
}

// render draws a frame as rows of poles, poles the hardware would leave off
// are drawn as a dot
func render(frame *model.Frame) string {
	out := strings.Builder{}
	for _, row := range frame {
		for _, cell := range row {
			if cell.Off() {
				out.WriteString(dark)
				continue
			}
			out.WriteString(block(cell.A()))
			out.WriteString(block(cell.B()))
			out.WriteString(reset)
			out.WriteString(" ")
		}
		out.WriteString(reset)
		out.WriteString("\n")
	}
	return out.String()
}
