package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/Fepozopo/darkroom/pkg/codec"
)

// Terminal preview for the kitty graphics protocol, the iTerm2 inline image
// protocol (also spoken by WezTerm, Warp, Tabby, VSCode and others), sixel
// through img2sixel, and chafa as a character-cell fallback.
//
// PREVIEW_BACKEND=kitty|inline|sixel|chafa forces a backend first; the
// normal detection order still applies if it fails.

var previewDebug atomic.Bool

// SetPreviewDebug toggles preview diagnostics on stderr (PREVIEW_DEBUG).
func SetPreviewDebug(on bool) { previewDebug.Store(on) }

func debugf(format string, args ...interface{}) {
	if previewDebug.Load() {
		fmt.Fprintf(os.Stderr, "darkroom-preview: "+format+"\n", args...)
	}
}

// errNoPreview is returned when no backend matched the terminal.
var errNoPreview = errors.New("no preview protocol matched")

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	// ghostty implements the kitty protocol too.
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") || strings.Contains(term, "ghost") {
		return true
	}
	return os.Getenv("KONSOLE_VERSION") != ""
}

// isInlineImageCapable detects terminals speaking the iTerm2 OSC 1337
// inline image protocol.
func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		debugf("TERM_PROGRAM indicates inline-capable: %s", os.Getenv("TERM_PROGRAM"))
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	for _, s := range []string{"wezterm", "wez", "warp", "tabby", "vscode"} {
		if strings.Contains(term, s) {
			debugf("TERM suggests inline-capable: %s", term)
			return true
		}
	}
	return os.Getenv("ITERM_SESSION_ID") != ""
}

// isSixelCapable is a heuristic; SIXEL_PREVIEW=1 forces it.
func isSixelCapable() bool {
	if os.Getenv("SIXEL_PREVIEW") == "1" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "foot") || strings.Contains(term, "st") || strings.Contains(term, "linux") {
		return true
	}
	return os.Getenv("WT_SESSION") != ""
}

func hasChafa() bool {
	if os.Getenv("NO_CHAFA") == "1" {
		return false
	}
	if os.Getenv("CHAFAPREVIEW") == "1" {
		return true
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether the terminal likely supports a preview.
func PreviewSupported() bool {
	supported := isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
	debugf("PreviewSupported -> %v", supported)
	return supported
}

// postImageNewlines is how many lines to advance after an image so the
// prompt lands just below it.
func postImageNewlines(requestedRows int) int {
	switch {
	case requestedRows <= 0:
		return 1
	case requestedRows <= 2:
		return 1
	case requestedRows <= 6:
		return 2
	case requestedRows <= 20:
		return 3
	default:
		return 4
	}
}

// PreviewSize is the placement of a preview in character cells and pixels.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize fits an image into at most 80x40 cells of 8x16 pixels,
// keeping the aspect ratio and never scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	const (
		charW, charH     = 8, 16
		minCols, minRows = 6, 3
		maxCols, maxRows = 80, 40
	)
	scale := 1.0
	if w > 0 && h > 0 {
		scale = math.Min(1, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))
	}
	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))
	cols = min(max(cols, minCols), maxCols)
	rows = min(max(rows, minRows), maxRows)

	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

// Previewer draws images inline in the terminal.
type Previewer struct {
	// Format is the container sent to the terminal. Kitty always gets PNG.
	Format  codec.Format
	Quality int
	Out     io.Writer
}

// NewPreviewer returns a PNG previewer writing to stdout.
func NewPreviewer() *Previewer {
	return &Previewer{Format: codec.PNG, Quality: codec.DefaultJPEGQuality, Out: os.Stdout}
}

// PreviewImage previews img on stdout. format is "png" or "jpeg"; anything
// else means PNG.
func PreviewImage(img image.Image, format string) error {
	p := NewPreviewer()
	if f, err := codec.ParseFormat(format); err == nil && f == codec.JPEG {
		p.Format = codec.JPEG
	}
	return p.Show(img)
}

// Show encodes img and sends it with the best available backend.
func (p *Previewer) Show(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	f := p.Format
	if f != codec.JPEG {
		f = codec.PNG
	}
	backend := strings.ToLower(os.Getenv("PREVIEW_BACKEND"))
	if backend == "kitty" || (backend == "" && isKitty()) {
		debugf("forcing png encoding for kitty")
		f = codec.PNG
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, f, p.Quality); err != nil {
		return fmt.Errorf("preview encode: %w", err)
	}
	return p.send(buf.Bytes(), string(f), computePreviewSize(img))
}

// send tries the PREVIEW_BACKEND override, then the detected backends in
// order inline, kitty, sixel, chafa.
func (p *Previewer) send(blob []byte, format string, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}

	backends := map[string]func() error{
		"kitty":  func() error { return p.sendKitty(blob, size) },
		"inline": func() error { return p.sendInline(blob, format, size) },
		"sixel":  func() error { return p.sendSixel(blob, format, size) },
		"chafa":  func() error { return p.sendChafa(blob, size) },
	}
	if v := strings.ToLower(os.Getenv("PREVIEW_BACKEND")); v != "" {
		if v == "iterm" || v == "wezterm" {
			v = "inline"
		}
		if fn, ok := backends[v]; ok {
			err := fn()
			if err == nil {
				return nil
			}
			debugf("override %s failed: %v", v, err)
		} else {
			debugf("unknown PREVIEW_BACKEND value: %s", v)
		}
	}

	var order []string
	if isInlineImageCapable() {
		order = append(order, "inline")
	}
	if isKitty() {
		order = append(order, "kitty")
	}
	if isSixelCapable() {
		order = append(order, "sixel")
	}
	if hasChafa() {
		order = append(order, "chafa")
	}
	var first error
	for _, name := range order {
		debugf("attempting %s", name)
		err := backends[name]()
		if err == nil {
			return nil
		}
		debugf("%s failed: %v", name, err)
		if first == nil {
			first = fmt.Errorf("%s preview failed: %w", name, err)
		}
	}
	if first != nil {
		return first
	}
	return errNoPreview
}

func (p *Previewer) newlines(n int) {
	for i := 0; i < n; i++ {
		fmt.Fprintln(p.Out)
	}
}

// sendKitty sends PNG bytes with the kitty graphics protocol: base64 in
// chunks of at most 4096 bytes, placement on the first chunk, q=2 to
// suppress terminal responses.
func (p *Previewer) sendKitty(data []byte, size PreviewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096

	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;", size.Cols, size.Rows, more)
		} else {
			seq = "\x1b_Gm=" + more + ";"
		}
		if _, err := io.WriteString(p.Out, seq+enc[pos:end]+"\x1b\\"); err != nil {
			return err
		}
	}
	p.newlines(postImageNewlines(size.Rows))
	return nil
}

// sendInline emits the iTerm2 OSC 1337 inline file sequence.
func (p *Previewer) sendInline(data []byte, format string, size PreviewSize) error {
	name := "preview.png"
	if strings.HasPrefix(format, "j") {
		name = "preview.jpg"
	}
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	seq := "\x1b]1337;File=name=" + name + ";inline=1;" + meta + ":" + base64.StdEncoding.EncodeToString(data) + "\a"
	_, err := io.WriteString(p.Out, seq)
	p.newlines(postImageNewlines(0))
	return err
}

// sendSixel pipes the image through img2sixel, falling back to chafa.
func (p *Previewer) sendSixel(data []byte, format string, size PreviewSize) error {
	cmd := exec.Command("img2sixel", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = p.Out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		p.newlines(postImageNewlines(0))
		return nil
	}
	debugf("img2sixel failed: %v (format=%s)", err, format)
	return p.sendChafa(data, size)
}

// sendChafa renders block symbols with chafa. CHAFA_FILL and CHAFA_SYMBOLS
// override the defaults.
func (p *Previewer) sendChafa(data []byte, size PreviewSize) error {
	if os.Getenv("NO_CHAFA") == "1" {
		return fmt.Errorf("chafa usage disabled via NO_CHAFA=1")
	}
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	fill, symbols := "block", "block"
	if f := os.Getenv("CHAFA_FILL"); f != "" {
		fill = f
	}
	if s := os.Getenv("CHAFA_SYMBOLS"); s != "" {
		symbols = s
	}
	cmd := exec.Command("chafa", "--fill="+fill, "--symbols="+symbols, "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = p.Out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	p.newlines(postImageNewlines(size.Rows))
	return nil
}
