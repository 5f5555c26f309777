package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TagSize is the width of every message tag except the handshake's
// "Synergy" tag, which predates this shorter four-byte convention and is
// kept at its historical width for wire compatibility (spec §6).
const TagSize = 4

// Writer builds one message payload — a tag followed by typed arguments —
// ready to hand to a stream.FrameStream's WriteFrame. Used by package
// serverproxy for every message besides Hello/HelloBack.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter starts a message with the given four-byte tag.
func NewWriter(tag string) *Writer {
	w := &Writer{}
	w.buf.WriteString(tag)
	return w
}

func (w *Writer) Uint8(v uint8) *Writer { w.buf.WriteByte(v); return w }

func (w *Writer) Int16(v int16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf.Write(b[:])
	return w
}

func (w *Writer) Uint16(v uint16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) Int32(v int32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
	return w
}

func (w *Writer) Uint32(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) Bytes(b []byte) *Writer { w.buf.Write(b); return w }

// String32 writes a four-byte big-endian length prefix followed by s's
// UTF-8 bytes.
func (w *Writer) String32(s string) *Writer {
	w.Uint32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

// Payload returns the assembled message.
func (w *Writer) Payload() []byte { return w.buf.Bytes() }

// Reader parses one message payload sequentially.
type Reader struct {
	data []byte
	off  int
}

// NewReader wraps frame for sequential field reads.
func NewReader(frame []byte) *Reader { return &Reader{data: frame} }

// Tag reads the four-byte tag at the front of the message.
func (r *Reader) Tag() (string, error) {
	if len(r.data)-r.off < TagSize {
		return "", fmt.Errorf("protocol: truncated tag")
	}
	t := string(r.data[r.off : r.off+TagSize])
	r.off += TagSize
	return t, nil
}

func (r *Reader) need(n int) error {
	if len(r.data)-r.off < n {
		return fmt.Errorf("protocol: truncated message")
	}
	return nil
}

func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *Reader) Int16() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v, nil
}

func (r *Reader) Uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *Reader) Int32() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v, nil
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) String32() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// Remaining returns the unread tail of the message.
func (r *Reader) Remaining() []byte { return r.data[r.off:] }
