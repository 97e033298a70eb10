// Package terminal puts the controlling terminal into raw mode and decodes
// keystrokes for the carousel.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/pable/go-pong-stats/internal/carousel"
)

// ErrNotTerminal is returned when stdin is not a TTY.
var ErrNotTerminal = errors.New("stdin is not a terminal")

const (
	enterScreen = "\x1b[?1049h\x1b[?25l" // alternate screen, hide cursor
	leaveScreen = "\x1b[?25h\x1b[?1049l"
)

// Raw switches in to raw mode on the alternate screen. The returned func
// restores the terminal and must always be called.
func Raw(in, out *os.File) (func(), error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("make raw: %w", err)
	}
	io.WriteString(out, enterScreen)
	return func() {
		io.WriteString(out, leaveScreen)
		term.Restore(fd, old)
	}, nil
}

// Decode splits a complete run of input into keys. CSI sequences are
// consumed whole; only unmodified arrows map to Left and Right. An escape
// sequence cut off by the end of b is a lone Escape press.
func Decode(b []byte) []carousel.Key {
	keys, _ := decode(b, true)
	return keys
}

// decode is Decode for a stream. Unless final, an incomplete escape
// sequence at the end of b is returned as rest for the next read.
func decode(b []byte, final bool) (keys []carousel.Key, rest []byte) {
	for len(b) > 0 {
		switch c := b[0]; {
		case c == 0x1b:
			k, n := escape(b)
			if n == 0 {
				if !final {
					return keys, b
				}
				if len(b) == 1 {
					k = carousel.Key{Kind: carousel.KeyEscape}
				} else {
					k = carousel.Key{Kind: carousel.KeyOther}
				}
				return append(keys, k), nil
			}
			keys = append(keys, k)
			b = b[n:]
		case c == 0x03: // Ctrl-C
			keys = append(keys, carousel.Key{Kind: carousel.KeyQuit})
			b = b[1:]
		default:
			r, size := utf8.DecodeRune(b)
			b = b[size:]
			keys = append(keys, keyFor(r))
		}
	}
	return keys, nil
}

// escape decodes the sequence starting at b[0] == ESC and reports how many
// bytes it used, or 0 when b ends before the sequence does.
func escape(b []byte) (carousel.Key, int) {
	if len(b) < 2 {
		return carousel.Key{}, 0
	}
	switch c := b[1]; {
	case c == '[':
		return csi(b)
	case c == 'O': // SS3, application cursor keys
		if len(b) < 3 {
			return carousel.Key{}, 0
		}
		return arrow(b[2]), 3
	case c < 0x20 || c == 0x7f:
		return carousel.Key{Kind: carousel.KeyEscape}, 1
	}
	// Alt plus a key.
	_, size := utf8.DecodeRune(b[1:])
	return carousel.Key{Kind: carousel.KeyOther}, 1 + size
}

// csi consumes ESC [, parameter bytes 0x30-0x3F, intermediate bytes
// 0x20-0x2F and one final byte 0x40-0x7E.
func csi(b []byte) (carousel.Key, int) {
	i := 2
	for i < len(b) && b[i] >= 0x30 && b[i] <= 0x3f {
		i++
	}
	for i < len(b) && b[i] >= 0x20 && b[i] <= 0x2f {
		i++
	}
	if i == len(b) {
		return carousel.Key{}, 0
	}
	if f := b[i]; f < 0x40 || f > 0x7e {
		// Malformed; drop the prefix and decode f on its own.
		return carousel.Key{Kind: carousel.KeyOther}, i
	}
	if i > 2 {
		// Modified or parameterised keys (Ctrl-Right, F5, ...) do nothing.
		return carousel.Key{Kind: carousel.KeyOther}, i + 1
	}
	return arrow(b[i]), i + 1
}

func arrow(final byte) carousel.Key {
	switch final {
	case 'D':
		return carousel.Key{Kind: carousel.KeyLeft}
	case 'C':
		return carousel.Key{Kind: carousel.KeyRight}
	}
	return carousel.Key{Kind: carousel.KeyOther}
}

func keyFor(r rune) carousel.Key {
	switch r {
	case 'q', 'Q':
		return carousel.Key{Kind: carousel.KeyQuit}
	case 'p', 'P':
		return carousel.Key{Kind: carousel.KeyTogglePicker}
	case ' ':
		return carousel.Key{Kind: carousel.KeySpace}
	}
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return carousel.Key{Kind: carousel.KeyOther}
	}
	return carousel.Key{Kind: carousel.KeyRune, Rune: unicode.ToLower(r)}
}

// escapeTimeout is how long a trailing ESC or partial sequence waits for
// the rest of its bytes before it counts as a keypress of its own.
var escapeTimeout = 25 * time.Millisecond

// ReadKeys feeds decoded keys to press until ctx is done, the reader fails
// or press reports that nobody is listening. Escape sequences split across
// reads are joined.
//
// A Read blocked in the background is abandoned on return; on a terminal
// it ends with the process.
func ReadKeys(ctx context.Context, r io.Reader, press func(carousel.Key) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case chunks <- bytes.Clone(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	emit := func(keys []carousel.Key) bool {
		for _, k := range keys {
			if !press(k) {
				return false
			}
		}
		return true
	}

	var (
		pending []byte
		flush   <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk := <-chunks:
			var keys []carousel.Key
			keys, pending = decode(append(pending, chunk...), false)
			if !emit(keys) {
				return nil
			}
			flush = nil
			if len(pending) > 0 {
				flush = time.After(escapeTimeout)
			}
		case <-flush:
			keys, _ := decode(pending, true)
			pending, flush = nil, nil
			if !emit(keys) {
				return nil
			}
		case err := <-errc:
			keys, _ := decode(pending, true)
			if !emit(keys) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
