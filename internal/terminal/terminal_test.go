package terminal

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-pong-stats/internal/carousel"
)

func kinds(keys []carousel.Key) []carousel.KeyKind {
	out := make([]carousel.KeyKind, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Kind)
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []carousel.KeyKind
	}{
		{"left arrow", "\x1b[D", []carousel.KeyKind{carousel.KeyLeft}},
		{"right arrow", "\x1b[C", []carousel.KeyKind{carousel.KeyRight}},
		{"up arrow ignored", "\x1b[A", []carousel.KeyKind{carousel.KeyOther}},
		{"lone escape", "\x1b", []carousel.KeyKind{carousel.KeyEscape}},
		{"space", " ", []carousel.KeyKind{carousel.KeySpace}},
		{"picker", "pP", []carousel.KeyKind{carousel.KeyTogglePicker, carousel.KeyTogglePicker}},
		{"quit", "q", []carousel.KeyKind{carousel.KeyQuit}},
		{"ctrl-c", "\x03", []carousel.KeyKind{carousel.KeyQuit}},
		{"burst", "\x1b[C\x1b[C ", []carousel.KeyKind{carousel.KeyRight, carousel.KeyRight, carousel.KeySpace}},
		{"control byte", "\x01", []carousel.KeyKind{carousel.KeyOther}},
		{"ctrl-right", "\x1b[1;5C", []carousel.KeyKind{carousel.KeyOther}},
		{"shift-left", "\x1b[1;2D", []carousel.KeyKind{carousel.KeyOther}},
		{"f5", "\x1b[15~", []carousel.KeyKind{carousel.KeyOther}},
		{"ss3 right", "\x1bOC", []carousel.KeyKind{carousel.KeyRight}},
		{"alt key", "\x1bx", []carousel.KeyKind{carousel.KeyOther}},
		{"escape then ctrl-c", "\x1b\x03", []carousel.KeyKind{carousel.KeyEscape, carousel.KeyQuit}},
		{"cut-off csi", "\x1b[1;", []carousel.KeyKind{carousel.KeyOther}},
		{"modified arrow then space", "\x1b[1;5D ", []carousel.KeyKind{carousel.KeyOther, carousel.KeySpace}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, kinds(Decode([]byte(tc.in))))
		})
	}
}

func TestDecode_RunesLowercased(t *testing.T) {
	keys := Decode([]byte("3B"))
	assert.Equal(t, []carousel.Key{
		{Kind: carousel.KeyRune, Rune: '3'},
		{Kind: carousel.KeyRune, Rune: 'b'},
	}, keys)
}

func TestReadKeys_StopsWhenSessionGone(t *testing.T) {
	var got []carousel.Key
	err := ReadKeys(context.Background(), strings.NewReader(" \x1b[Cq"), func(k carousel.Key) bool {
		got = append(got, k)
		return len(got) < 2
	})
	assert.NoError(t, err)
	assert.Equal(t, []carousel.KeyKind{carousel.KeySpace, carousel.KeyRight}, kinds(got))
}

func TestReadKeys_EOF(t *testing.T) {
	n := 0
	err := ReadKeys(context.Background(), strings.NewReader("pp"), func(carousel.Key) bool { n++; return true })
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDecode_ModifiedKeysNeverPickPlayers(t *testing.T) {
	s, _ := carousel.Reduce(carousel.State{}, carousel.PayloadLoaded([]int64{10, 20, 30, 40, 50}))
	s, _ = carousel.Reduce(s, carousel.TogglePicker())
	require.True(t, s.PickerOpen)

	for _, seq := range []string{"\x1b[1;2D", "\x1b[1;5C", "\x1b[15~", "\x1b[3;5~"} {
		keys := Decode([]byte(seq))
		require.Len(t, keys, 1, "%q", seq)
		_, ok := carousel.Route(s, keys[0])
		assert.False(t, ok, "%q must not route to a command", seq)
	}
}

// chunkReader returns one chunk per Read.
type chunkReader struct{ chunks []string }

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func setEscapeTimeout(t *testing.T, d time.Duration) {
	old := escapeTimeout
	escapeTimeout = d
	t.Cleanup(func() { escapeTimeout = old })
}

func TestReadKeys_JoinsSplitSequences(t *testing.T) {
	setEscapeTimeout(t, time.Minute)

	tests := []struct {
		name   string
		chunks []string
		want   []carousel.KeyKind
	}{
		{"arrow", []string{"\x1b", "[C"}, []carousel.KeyKind{carousel.KeyRight}},
		{"arrow after bracket", []string{"\x1b[", "D"}, []carousel.KeyKind{carousel.KeyLeft}},
		{"parameterised", []string{"p\x1b[1;", "5C"}, []carousel.KeyKind{carousel.KeyTogglePicker, carousel.KeyOther}},
		{"escape at eof", []string{" ", "\x1b"}, []carousel.KeyKind{carousel.KeySpace, carousel.KeyEscape}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []carousel.Key
			err := ReadKeys(context.Background(), &chunkReader{chunks: tc.chunks}, func(k carousel.Key) bool {
				got = append(got, k)
				return true
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, kinds(got))
		})
	}
}

func TestReadKeys_LoneEscapeAfterTimeout(t *testing.T) {
	setEscapeTimeout(t, 5*time.Millisecond)

	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := make(chan carousel.Key, 4)
	done := make(chan error, 1)
	go func() {
		done <- ReadKeys(ctx, pr, func(k carousel.Key) bool {
			keys <- k
			return true
		})
	}()

	_, err := pw.Write([]byte("\x1b"))
	require.NoError(t, err)

	select {
	case k := <-keys:
		assert.Equal(t, carousel.KeyEscape, k.Kind)
	case <-time.After(time.Second):
		t.Fatal("lone escape never delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadKeys did not return after cancel")
	}
}
