package cli

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/dustin/go-humanize"
)

// Prompter reads answers line by line from a single buffered reader so no
// input is lost between prompts.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fzf enables "/" as a request for the fzf file picker.
	fzf bool
}

// NewPrompter reads from in and prints prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fzf: fzfAvailable()}
}

// Line displays a prompt and reads a full line, trimmed of surrounding
// whitespace. A final line without a newline is returned before io.EOF.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// LineOrFzf is Line, except that a lone "/" opens the fzf file picker.
// When fzf is unavailable or cancelled the prompt is shown again.
func (p *Prompter) LineOrFzf(prompt string) (string, error) {
	input, err := p.Line(prompt)
	if err != nil || input != "/" || !p.fzf {
		return input, err
	}
	sel, selErr := SelectFileWithFzf(".")
	if selErr == nil && sel != "" {
		fmt.Fprintf(p.out, " [fzf] %s\n", sel)
		return sel, nil
	}
	return p.Line(prompt)
}

// Confirm asks a y/N question.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	answer, err := p.Line(prompt)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

var (
	stdPrompterOnce sync.Once
	stdPrompter     *Prompter
)

// PromptLine prompts on stdout and reads a line from stdin.
func PromptLine(prompt string) (string, error) {
	stdPrompterOnce.Do(func() { stdPrompter = NewPrompter(os.Stdin, os.Stdout) })
	return stdPrompter.Line(prompt)
}

// DescribeImage returns a one-line summary of an image. size is the encoded
// size in bytes, or 0 if unknown.
func DescribeImage(img image.Image, f codec.Format, size int64) string {
	if img == nil {
		return "no image"
	}
	b := img.Bounds()
	pixels := float64(b.Dx()) * float64(b.Dy())
	s := fmt.Sprintf("Format: %s, %s x %s (%s)", f,
		humanize.Comma(int64(b.Dx())), humanize.Comma(int64(b.Dy())),
		humanize.SIWithDigits(pixels, 1, "px"))
	if size > 0 {
		s += ", " + humanize.Bytes(uint64(size))
	}
	return s
}

// WriteMetadata prints the non-empty fields of m, one per line.
func WriteMetadata(w io.Writer, m codec.Metadata) {
	line := func(label, format string, args ...interface{}) {
		fmt.Fprintf(w, "%-13s "+format+"\n", append([]interface{}{label + ":"}, args...)...)
	}
	if m.Make != "" || m.Model != "" {
		line("Camera", "%s", strings.TrimSpace(m.Make+" "+m.Model))
	}
	if m.LensModel != "" {
		line("Lens", "%s", m.LensModel)
	}
	if m.Software != "" {
		line("Software", "%s", m.Software)
	}
	if m.Orientation != 0 {
		line("Orientation", "%d", m.Orientation)
	}
	if !m.Taken.IsZero() {
		line("Taken", "%s (%s)", m.Taken.Format("2006-01-02 15:04:05"), humanize.Time(m.Taken))
	}
	if m.ExposureTime != "" {
		line("Exposure", "%s sec", m.ExposureTime)
	}
	if m.FNumber != 0 {
		line("Aperture", "f/%.1f", m.FNumber)
	}
	if m.ISO != 0 {
		line("ISO", "%d", m.ISO)
	}
	if m.FocalLength != 0 {
		line("Focal length", "%.1f mm", m.FocalLength)
	}
	if m.HasGPS {
		line("GPS", "%.6f, %.6f", m.Latitude, m.Longitude)
	}
}
