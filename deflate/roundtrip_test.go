package deflate

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
)

var errMismatch = errors.New("concurrent round trip mismatch")

// literalOnly feeds a Writer byte by byte with no LZ77 matching, useful
// for isolating the block encoder/decoder from the match finder. It
// returns plain errors rather than calling into *testing.T so it is safe
// to call from any goroutine.
func literalOnly(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, b := range data {
		if err := w.Literal(b); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	r := NewReader(bytes.NewReader(compressed))
	return io.ReadAll(r)
}

func TestRoundTripLiteralOnly(t *testing.T) {
	cases := []string{
		"",
		"a",
		"hello, world",
		strings.Repeat("x", 100000),
	}
	for _, c := range cases {
		compressed, err := literalOnly([]byte(c))
		if err != nil {
			t.Fatalf("compress: %v", err)
		}
		got, err := decompress(compressed)
		if err != nil {
			t.Fatalf("decompress: %v", err)
		}
		if string(got) != c {
			t.Fatalf("round trip mismatch for %q (len %d): got len %d", truncate(c), len(c), len(got))
		}
	}
}

func TestRoundTripWithMatches(t *testing.T) {
	w := &bytes.Buffer{}
	wr := NewWriter(w)

	if err := wr.Literal('a'); err != nil {
		t.Fatal(err)
	}
	if err := wr.Literal('b'); err != nil {
		t.Fatal(err)
	}
	if err := wr.Literal('c'); err != nil {
		t.Fatal(err)
	}
	// A match copying "abc" from 3 bytes back, repeated enough to cross a
	// window half-roll boundary in window.go.
	for i := 0; i < 20000; i++ {
		if err := wr.Match(3, 3); err != nil {
			t.Fatal(err)
		}
	}
	if err := wr.Close(); err != nil {
		t.Fatal(err)
	}

	want := "abc" + strings.Repeat("abc", 20000)
	got, err := decompress(w.Bytes())
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != want {
		t.Fatalf("round trip with matches mismatch: got len %d, want len %d", len(got), len(want))
	}
}

func TestRoundTripConcurrentInstances(t *testing.T) {
	inputs := []string{
		strings.Repeat("alpha", 5000),
		strings.Repeat("beta", 7000),
		strings.Repeat("gamma delta", 3000),
		"short",
	}

	var g errgroup.Group
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			compressed, err := literalOnly([]byte(in))
			if err != nil {
				return err
			}
			got, err := decompress(compressed)
			if err != nil {
				return err
			}
			if string(got) != in {
				return errMismatch
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
