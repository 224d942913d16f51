package mqtt

import (
	"errors"
	"io"
)

var (
	// ErrFrameTooLarge is returned when an inbound frame exceeds the
	// configured maximum size.
	ErrFrameTooLarge = errors.New("mqtt: frame exceeds maximum size")
)

// ReadFrame reads one complete MQTT frame from the reader.
// If maxSize is greater than 0, frames larger than maxSize return
// ErrFrameTooLarge. Returns the frame and the number of bytes read.
func ReadFrame(r io.Reader, maxSize uint32) (Frame, int, error) {
	var header FixedHeader
	n, err := header.Decode(r)
	if err != nil {
		return Frame{}, n, err
	}

	if maxSize > 0 && header.RemainingLength > maxSize {
		return Frame{}, n, ErrFrameTooLarge
	}

	body := make([]byte, header.RemainingLength)
	if header.RemainingLength > 0 {
		rn, err := io.ReadFull(r, body)
		n += rn
		if err != nil {
			return Frame{}, n, err
		}
	}

	return Frame{Header: byte(header.PacketType)<<4 | header.Flags, Body: body}, n, nil
}

// WriteFrame writes one complete MQTT frame to the writer.
// Returns the number of bytes written.
func WriteFrame(w io.Writer, f Frame) (int, error) {
	header := FixedHeader{
		PacketType:      f.Type(),
		Flags:           f.Flags(),
		RemainingLength: uint32(len(f.Body)),
	}
	n, err := header.Encode(w)
	if err != nil {
		return n, err
	}
	if len(f.Body) == 0 {
		return n, nil
	}
	n2, err := w.Write(f.Body)
	return n + n2, err
}
