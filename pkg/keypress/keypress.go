// Package keypress turns designated key presses on the terminal into
// context cancellation.
//
// A Listener owns the raw input device for its lifetime: it switches a
// terminal into raw mode, reads key presses on one goroutine and cancels its
// context when a designated key arrives. Only one Listener may be active per
// process. Close releases the device and restores the terminal, and must be
// called on every exit path:
//
//	l, err := keypress.Listen(ctx, os.Stdin, keypress.DefaultKeys...)
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//
//	text, err := decoder.Decode(l.Context(), chunks, exclusions, sink)
package keypress

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

var (
	// ErrListenerActive is returned when a Listener is requested while
	// another one still holds the input device.
	ErrListenerActive = errors.New("keypress listener already active")

	// ErrKeyPressed is the cancellation cause recorded when a designated key
	// stops the stream.
	ErrKeyPressed = errors.New("cancel key pressed")
)

var active atomic.Bool

// Listener cancels its context when one of its keys is pressed.
type Listener struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	keys    map[Key]bool
	reader  cancelreader.CancelReader
	restore func() error
	done    chan struct{}

	mu      sync.Mutex
	pressed Key

	closeOnce sync.Once
	closeErr  error
}

// Listen installs a Listener on f. When f is a terminal it is put into raw
// mode so single key presses arrive unbuffered; otherwise f is left alone and
// the Listener only relays cancellation of ctx.
func Listen(ctx context.Context, f *os.File, keys ...Key) (*Listener, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return acquire(ctx, nil, nil, keys)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	restore := func() error { return term.Restore(fd, state) }

	l, err := acquire(ctx, f, restore, keys)
	if err != nil {
		_ = restore()
		return nil, err
	}
	return l, nil
}

// NewListener installs a Listener reading key presses from r, which is
// expected to deliver raw, unbuffered input.
func NewListener(ctx context.Context, r io.Reader, keys ...Key) (*Listener, error) {
	return acquire(ctx, r, nil, keys)
}

func acquire(ctx context.Context, r io.Reader, restore func() error, keys []Key) (*Listener, error) {
	if !active.CompareAndSwap(false, true) {
		return nil, ErrListenerActive
	}

	if len(keys) == 0 {
		keys = DefaultKeys
	}

	l := &Listener{
		keys:    make(map[Key]bool, len(keys)),
		restore: restore,
		done:    make(chan struct{}),
	}
	for _, k := range keys {
		l.keys[k] = true
	}
	l.ctx, l.cancel = context.WithCancelCause(ctx)

	if r == nil {
		close(l.done)
		return l, nil
	}

	cr, err := cancelreader.NewReader(r)
	if err != nil {
		l.cancel(nil)
		active.Store(false)
		return nil, err
	}
	l.reader = cr

	go l.read()
	return l, nil
}

func (l *Listener) read() {
	defer close(l.done)

	buf := make([]byte, 64)
	for {
		n, err := l.reader.Read(buf)
		for _, k := range decodeKeys(buf[:n]) {
			if l.keys[k] {
				l.press(k)
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (l *Listener) press(k Key) {
	l.mu.Lock()
	l.pressed = k
	l.mu.Unlock()

	l.cancel(ErrKeyPressed)
}

// Context returns a context that is cancelled when a designated key is
// pressed, when the parent context ends, or when the Listener is closed.
// context.Cause reports ErrKeyPressed for a key press.
func (l *Listener) Context() context.Context {
	return l.ctx
}

// Pressed returns the key that cancelled the context, if any.
func (l *Listener) Pressed() (Key, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pressed, l.pressed != ""
}

// Raw reports whether the Listener switched a terminal into raw mode.
func (l *Listener) Raw() bool {
	return l.restore != nil
}

// Output wraps w so that text written to a terminal while it is in raw mode
// still starts new lines at column zero. Other writers are returned as-is.
func (l *Listener) Output(w io.Writer) io.Writer {
	if !l.Raw() {
		return w
	}
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return w
	}
	return CRLF(w)
}

// Close stops reading, restores the terminal and releases the input device.
// It is safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		if l.reader != nil {
			if l.reader.Cancel() {
				<-l.done
			}
			l.closeErr = l.reader.Close()
		}
		if l.restore != nil {
			l.closeErr = errors.Join(l.closeErr, l.restore())
		}
		l.cancel(nil)
		active.Store(false)
	})
	return l.closeErr
}
