package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize defines the grouping of bytes (usually 1, 2, 4, or 8)
	GroupSize int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartAddress is the target address of the first byte
	StartAddress uint64

	// Color enables ANSI colours
	Color bool

	// Highlight is a byte pattern to colour wherever it occurs
	Highlight []byte

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// IsValidPointer, when set, is asked about every 8-byte aligned word;
	// words it accepts are listed after their line
	IsValidPointer func(uint64) bool
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		GroupSize:    1,
		ShowASCII:    true,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(w io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.GroupSize <= 0 || options.BytesPerLine%options.GroupSize != 0 {
		options.GroupSize = 1
	}

	highlight := highlightMask(data, options.Highlight)

	lines := 0
	for off := 0; off < len(data); off += options.BytesPerLine {
		if options.MaxLines > 0 && lines == options.MaxLines {
			fmt.Fprintf(w, "... %d more bytes\n", len(data)-off)
			return
		}

		end := off + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(w, data[off:end], highlight[off:end], options.StartAddress+uint64(off), options)
		lines++
	}
}

func formatLine(w io.Writer, line []byte, highlight []bool, addr uint64, options Options) {
	fmt.Fprint(w, paint(options.Color, coloransi.Cyan, fmt.Sprintf("%016x", addr)), "  ")

	var hex strings.Builder
	for i, b := range line {
		if i > 0 && i%options.GroupSize == 0 {
			hex.WriteByte(' ')
		}
		s := fmt.Sprintf("%02x", b)
		switch {
		case highlight[i]:
			s = paint(options.Color, coloransi.Yellow, s)
		case b == 0:
			s = paint(options.Color, coloransi.BrightBlack, s)
		}
		hex.WriteString(s)
	}
	fmt.Fprint(w, hex.String())

	if missing := options.BytesPerLine - len(line); missing > 0 {
		groups := options.BytesPerLine / options.GroupSize
		have := (len(line) + options.GroupSize - 1) / options.GroupSize
		fmt.Fprint(w, strings.Repeat(" ", missing*2+groups-have))
	}

	if options.ShowASCII {
		var ascii strings.Builder
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}
		fmt.Fprint(w, " |", ascii.String(), "|")
	}

	if options.IsValidPointer != nil {
		for i := int((8 - addr%8) % 8); i+8 <= len(line); i += 8 {
			ptr := binary.LittleEndian.Uint64(line[i:])
			if ptr != 0 && options.IsValidPointer(ptr) {
				fmt.Fprint(w, " ", paint(options.Color, coloransi.Green, fmt.Sprintf("->0x%x", ptr)))
			}
		}
	}

	fmt.Fprintln(w)
}

// highlightMask marks every byte covered by an occurrence of pattern
func highlightMask(data, pattern []byte) []bool {
	mask := make([]bool, len(data))
	if len(pattern) == 0 {
		return mask
	}
	for start := 0; start+len(pattern) <= len(data); {
		i := bytes.Index(data[start:], pattern)
		if i < 0 {
			break
		}
		for j := start + i; j < start+i+len(pattern); j++ {
			mask[j] = true
		}
		start += i + 1
	}
	return mask
}

func paint(enabled bool, c coloransi.ColorCode, s string) string {
	if !enabled {
		return s
	}
	return coloransi.Foreground(c, s)
}
