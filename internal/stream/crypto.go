package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"sync"

	"inputshare/internal/eventloop"
)

// Mode selects whether a connect attempt wraps the packet framer in a
// crypto layer.
type Mode int

const (
	// Disabled means no crypto layer is built; the packet framer is the
	// top of the pipeline.
	Disabled Mode = iota
	// Enabled wraps the packet framer in a CryptoStream.
	Enabled
)

// Options configures the optional crypto layer (spec §4.1 step 4, §6).
// Key must be 16, 24, or 32 bytes (AES-128/192/256).
type Options struct {
	Mode Mode
	Key  []byte
}

// CryptoStream is the optional top-of-pipeline layer that transparently
// encrypts writes and decrypts reads with an AES-CFB stream cipher. The
// encrypt IV is generated locally and sent as the first, unencrypted frame
// on the wire (the "preamble" in spec §6); the decrypt IV is learned from
// the peer's own preamble frame and installed with SetDecryptIV.
type CryptoStream struct {
	loop  *eventloop.Loop
	inner FrameStream
	block cipher.Block

	mu      sync.Mutex
	encrypt cipher.Stream
	decrypt cipher.Stream
	pending []byte
}

// NewCryptoStream wraps inner in a crypto layer per opts and immediately
// transmits the locally chosen encrypt IV as a plaintext preamble frame.
func NewCryptoStream(loop *eventloop.Loop, inner FrameStream, opts Options) (*CryptoStream, error) {
	block, err := aes.NewCipher(opts.Key)
	if err != nil {
		return nil, fmt.Errorf("crypto stream: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypto stream: generating iv: %w", err)
	}

	c := &CryptoStream{
		loop:    loop,
		inner:   inner,
		block:   block,
		encrypt: cipher.NewCFBEncrypter(block, iv),
	}

	loop.Subscribe(InputReady, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: InputReady, Target: c})
	})
	loop.Subscribe(OutputError, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputError, Target: c})
	})
	loop.Subscribe(InputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: InputShutdown, Target: c})
	})
	loop.Subscribe(OutputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputShutdown, Target: c})
	})
	loop.Subscribe(Disconnected, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: Disconnected, Target: c})
	})

	if err := inner.WriteFrame(iv); err != nil {
		return nil, fmt.Errorf("crypto stream: sending iv preamble: %w", err)
	}

	return c, nil
}

// SetDecryptIV installs the peer's IV, read out of the first inbound frame
// before this layer has a decrypt stream (see ReadFrame). Called by the
// session once it recognizes that frame as a preamble rather than Hello.
func (c *CryptoStream) SetDecryptIV(iv []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decrypt = cipher.NewCFBDecrypter(c.block, iv)
}

// DecryptReady reports whether the decrypt IV has been installed yet. The
// session uses this to recognize the first inbound frame, before it is
// set, as the peer's IV preamble rather than a decodable message.
func (c *CryptoStream) DecryptReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrypt != nil
}

// ReadFrame returns the next frame. Before SetDecryptIV has been called,
// frames are returned raw — the only frame that can legitimately arrive in
// that state is the peer's IV preamble, which the session consumes via
// SetDecryptIV rather than treating as protocol data.
func (c *CryptoStream) ReadFrame() ([]byte, bool) {
	frame, ok := c.inner.ReadFrame()
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.decrypt == nil {
		return frame, true
	}
	out := make([]byte, len(frame))
	c.decrypt.XORKeyStream(out, frame)
	return out, true
}

// Read drains at most one frame's worth of (already decrypted, once ready)
// bytes into p per call.
func (c *CryptoStream) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		frame, ok := c.ReadFrame()
		if !ok {
			return 0, nil
		}
		c.pending = frame
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write encrypts payload and writes it as one frame to inner.
func (c *CryptoStream) Write(payload []byte) (int, error) {
	c.mu.Lock()
	out := make([]byte, len(payload))
	c.encrypt.XORKeyStream(out, payload)
	c.mu.Unlock()
	if err := c.inner.WriteFrame(out); err != nil {
		return 0, err
	}
	return len(payload), nil
}

// WriteFrame is an alias of Write for FrameStream callers.
func (c *CryptoStream) WriteFrame(payload []byte) error {
	_, err := c.Write(payload)
	return err
}

// IsReady reports whether input (raw preamble bytes or a decryptable
// frame) is currently buffered.
func (c *CryptoStream) IsReady() bool {
	return len(c.pending) > 0 || c.inner.IsReady()
}

// EventTarget identifies this CryptoStream for event subscriptions.
func (c *CryptoStream) EventTarget() eventloop.Target { return c }

// Close unsubscribes from inner and closes it.
func (c *CryptoStream) Close() error {
	c.loop.Unsubscribe(InputReady, c.inner.EventTarget())
	c.loop.Unsubscribe(OutputError, c.inner.EventTarget())
	c.loop.Unsubscribe(InputShutdown, c.inner.EventTarget())
	c.loop.Unsubscribe(OutputShutdown, c.inner.EventTarget())
	c.loop.Unsubscribe(Disconnected, c.inner.EventTarget())
	return c.inner.Close()
}

var _ FrameStream = (*CryptoStream)(nil)
var _ DecryptIVSetter = (*CryptoStream)(nil)
