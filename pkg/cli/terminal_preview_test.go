package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/codec"
)

// plainTerminal clears every variable the backend detection looks at.
func plainTerminal(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TERM_PROGRAM", "KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID",
		"SIXEL_PREVIEW", "WT_SESSION", "CHAFAPREVIEW", "PREVIEW_BACKEND",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("TERM", "dumb")
	t.Setenv("NO_CHAFA", "1")
}

func inlineTerminal(t *testing.T) {
	plainTerminal(t)
	t.Setenv("TERM_PROGRAM", "WezTerm")
	t.Setenv("TERM", "xterm-256color")
}

func tinyImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	img.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	img.Set(1, 1, color.NRGBA{255, 255, 0, 255})
	return img
}

// inlinePayload decodes the base64 body of an OSC 1337 sequence.
func inlinePayload(t *testing.T, out string) []byte {
	t.Helper()
	idx := strings.Index(out, ":")
	if idx < 0 {
		t.Fatalf("no ':' found in output: %q", out)
	}
	payload := out[idx+1:]
	if bi := strings.Index(payload, "\a"); bi >= 0 {
		payload = payload[:bi]
	}
	dec, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	return dec
}

func TestPreviewInlineSequence(t *testing.T) {
	inlineTerminal(t)
	var buf bytes.Buffer
	p := &Previewer{Format: codec.PNG, Out: &buf}
	if err := p.Show(tinyImage()); err != nil {
		t.Fatalf("Show error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b]1337;File=name=preview.png;inline=1;") {
		t.Fatalf("expected inline 1337 sequence, got: %q", out)
	}
	dec := inlinePayload(t, out)
	if !bytes.HasPrefix(dec, []byte("\x89PNG")) {
		t.Fatalf("expected PNG payload, got %x", dec[:4])
	}
}

func TestPreviewEncodesJPEG(t *testing.T) {
	inlineTerminal(t)
	var buf bytes.Buffer
	p := &Previewer{Format: codec.JPEG, Quality: 80, Out: &buf}
	if err := p.Show(tinyImage()); err != nil {
		t.Fatalf("Show error: %v", err)
	}
	dec := inlinePayload(t, buf.String())
	if len(dec) < 2 || dec[0] != 0xFF || dec[1] != 0xD8 {
		t.Fatalf("expected JPEG SOI bytes, got: %x", dec[:4])
	}
}

func TestPreviewKittyChunks(t *testing.T) {
	plainTerminal(t)
	t.Setenv("PREVIEW_BACKEND", "kitty")

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	rng := rand.New(rand.NewSource(1))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	p := &Previewer{Format: codec.JPEG, Out: &buf}
	if err := p.Show(img); err != nil {
		t.Fatalf("Show error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,t=d,q=2,c=8,r=4,m=1;") {
		t.Fatalf("unexpected first chunk header: %q", out[:40])
	}
	if !strings.Contains(out, "\x1b_Gm=0;") {
		t.Fatalf("expected a final m=0 chunk")
	}
	if n := strings.Count(out, "\x1b\\"); n < 2 {
		t.Fatalf("expected multiple chunks, got %d", n)
	}
}

func TestPreviewNoBackend(t *testing.T) {
	plainTerminal(t)
	p := &Previewer{Format: codec.PNG, Out: &bytes.Buffer{}}
	err := p.Show(tinyImage())
	if !errors.Is(err, errNoPreview) {
		t.Fatalf("expected errNoPreview, got %v", err)
	}
	if err := p.Show(nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestComputePreviewSize(t *testing.T) {
	cases := []struct {
		w, h       int
		cols, rows int
	}{
		{2000, 1000, 80, 20},
		{10, 10, 6, 3},
		{640, 640, 40, 40},
	}
	for _, c := range cases {
		got := computePreviewSize(image.NewNRGBA(image.Rect(0, 0, c.w, c.h)))
		if got.Cols != c.cols || got.Rows != c.rows {
			t.Fatalf("%dx%d: got %dx%d cells, want %dx%d", c.w, c.h, got.Cols, got.Rows, c.cols, c.rows)
		}
		if got.PixelWidth != got.Cols*8 || got.PixelHeight != got.Rows*16 {
			t.Fatalf("pixel size mismatch: %+v", got)
		}
	}
}
