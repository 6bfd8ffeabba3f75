package gzip

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestRoundTripBasic(t *testing.T) {
	cases := []string{
		"",
		"hello, gzip",
		strings.Repeat("the quick brown fox jumps over the lazy dog ", 500),
	}
	for _, c := range cases {
		var buf bytes.Buffer
		zw := NewWriter(&buf)
		if _, err := zw.Write([]byte(c)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		zr, err := NewReader(&buf)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		got, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if string(got) != c {
			t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(c))
		}
	}
}

func TestRoundTripHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	zw.Name = "hello.txt"
	zw.Comment = "a test file"
	zw.ModTime = time.Unix(1700000000, 0)
	zw.Extra = []byte{0x01, 0x02, 0x03}

	payload := "payload data for header test"
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if zr.Name != zw.Name {
		t.Errorf("Name = %q, want %q", zr.Name, zw.Name)
	}
	if zr.Comment != zw.Comment {
		t.Errorf("Comment = %q, want %q", zr.Comment, zw.Comment)
	}
	if !zr.ModTime.Equal(zw.ModTime) {
		t.Errorf("ModTime = %v, want %v", zr.ModTime, zw.ModTime)
	}
	if !bytes.Equal(zr.Extra, zw.Extra) {
		t.Errorf("Extra = %v, want %v", zr.Extra, zw.Extra)
	}

	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != payload {
		t.Fatalf("payload mismatch: got %q", got)
	}
}

// TestRoundTripRepeatedRuns exercises length/distance match decoding
// through the full gzip container (header, hashmatch-found matches, and
// trailer), matching spec.md §8's "1000 repetitions of 'A'" boundary
// case: the encoded body must be smaller than the raw input (so matches
// were actually used, not just literals) and must decode back exactly,
// including a self-overlapping distance=1 run.
func TestRoundTripRepeatedRuns(t *testing.T) {
	input := strings.Repeat("A", 1000)

	var buf bytes.Buffer
	zw := NewWriter(&buf)
	if _, err := zw.Write([]byte(input)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len() >= len(input) {
		t.Fatalf("compressed size %d not smaller than raw %d; matches were not used", buf.Len(), len(input))
	}

	zr, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != input {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(input))
	}
}

// TestRoundTripMixedMatchLengths feeds text with runs long enough to hit
// the far end of the length-code table (length code 285, 258 bytes, no
// extra bits) and distances spanning multiple distance codes, so a
// regression that conflates the encoder's base_length/baseDist tables
// with real decode bases (as opposed to only ever emitting short,
// small-distance matches) would be caught.
func TestRoundTripMixedMatchLengths(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("the quick brown fox jumps over the lazy dog. ")
	sb.WriteString(strings.Repeat("xyzzy", 60))  // period-5 run: distance-5 matches
	sb.WriteString(strings.Repeat("ab12345", 50)) // period-7 run: distance-7 matches (a code with extra bits)
	sb.WriteString(strings.Repeat("Q", 300))      // forces a 258-byte max-length match
	input := sb.String()

	var buf bytes.Buffer
	zw := NewWriter(&buf)
	if _, err := zw.Write([]byte(input)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	zr, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != input {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(input))
	}
}

func TestMultistream(t *testing.T) {
	var buf bytes.Buffer

	for _, part := range []string{"first member ", "second member ", "third"} {
		zw := NewWriter(&buf)
		if _, err := zw.Write([]byte(part)); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	}

	zr, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := "first member second member third"
	if string(got) != want {
		t.Fatalf("multistream mismatch: got %q, want %q", got, want)
	}
}

func TestMultistreamDisabled(t *testing.T) {
	var buf bytes.Buffer
	for _, part := range []string{"one", "two"} {
		zw := NewWriter(&buf)
		if _, err := zw.Write([]byte(part)); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	}

	zr, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	zr.Multistream(false)
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "one" {
		t.Fatalf("expected only the first member, got %q", got)
	}
}

func TestBadChecksum(t *testing.T) {
	var buf bytes.Buffer
	zw := NewWriter(&buf)
	if _, err := zw.Write([]byte("corrupt me")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff // flip every bit of ISIZE's last byte

	zr, err := NewReader(bytes.NewReader(corrupted))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := io.ReadAll(zr); err != ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}
