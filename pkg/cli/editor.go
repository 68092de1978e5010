package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/config"
	"github.com/Fepozopo/darkroom/pkg/logging"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/render"
)

// ErrNoImage is returned by editor actions that need an open image.
var ErrNoImage = errors.New("no image loaded")

// maxHistory bounds the undo stack.
const maxHistory = 64

// Editor is one interactive editing session: a source image, the current
// edit and the bypassed tabs. The source is never modified.
type Editor struct {
	cfg      *config.Config
	prompt   *Prompter
	out      io.Writer
	renderer *render.Renderer
	preview  *Previewer
	tracker  render.Tracker
	log      *slog.Logger
	fzf      bool
	owned    bool

	path    string
	format  codec.Format
	size    int64
	src     image.Image
	params  params.EditParameters
	bypass  params.BypassSet
	history []params.EditParameters
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) EditorOption {
	return func(e *Editor) {
		e.prompt = NewPrompter(in, out)
		e.out = out
	}
}

// WithRenderer sets the renderer; the editor then does not own it.
func WithRenderer(r *render.Renderer) EditorOption {
	return func(e *Editor) { e.renderer = r }
}

// WithPreviewer sets the terminal previewer. nil disables previews.
func WithPreviewer(p *Previewer) EditorOption {
	return func(e *Editor) { e.preview = p }
}

// WithoutFzf always uses the numbered fallback lists.
func WithoutFzf() EditorOption {
	return func(e *Editor) { e.fzf = false }
}

// NewEditor returns an editor with no image loaded.
func NewEditor(cfg *config.Config, opts ...EditorOption) *Editor {
	e := &Editor{
		cfg:     cfg,
		prompt:  NewPrompter(os.Stdin, os.Stdout),
		out:     os.Stdout,
		preview: NewPreviewer(),
		log:     logging.Logger(),
		params:  params.Identity(),
		bypass:  params.NewBypass(),
		fzf:     fzfAvailable(),
	}
	for _, o := range opts {
		o(e)
	}
	e.prompt.fzf = e.fzf
	if e.renderer == nil {
		e.renderer = render.New(rendererConfig(cfg), render.WithLogger(e.log))
		e.owned = true
	}
	return e
}

// rendererConfig maps the application config onto a render.Config.
func rendererConfig(cfg *config.Config) render.Config {
	return render.Config{UseGPU: cfg.GPU, PreviewMax: cfg.PreviewMax, JPEGQuality: cfg.JPEGQuality}
}

// Close releases the renderer if the editor created it.
func (e *Editor) Close() {
	if e.owned {
		e.renderer.Close()
	}
}

// Params returns a copy of the current edit.
func (e *Editor) Params() params.EditParameters { return e.params.Clone() }

// Bypass returns the bypassed tabs.
func (e *Editor) Bypass() params.BypassSet { return e.bypass }

// Open loads path, replacing the current image. The edit is kept so a
// recipe can be tried on several images.
func (e *Editor) Open(path string) error {
	img, f, err := codec.Load(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	e.tracker.Forget(e.path)
	e.path, e.format, e.src = path, f, img
	e.size = 0
	if st, err := os.Stat(path); err == nil {
		e.size = st.Size()
	}
	e.log.Info("opened image", "path", path, "format", f)
	return nil
}

func (e *Editor) checkpoint() {
	e.history = append(e.history, e.params.Clone())
	if len(e.history) > maxHistory {
		e.history = e.history[1:]
	}
}

// Set parses raw into the adjustment named key.
func (e *Editor) Set(key, raw string) error {
	a, ok := LookupAdjustment(key)
	if !ok {
		return fmt.Errorf("unknown adjustment %q", key)
	}
	next := e.params.Clone()
	if err := a.Set(&next, raw); err != nil {
		return err
	}
	e.checkpoint()
	e.params = next
	return nil
}

// Undo restores the edit before the last change. It reports false when
// there is nothing to undo.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	e.params = e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	return true
}

// Reset returns every adjustment to identity.
func (e *Editor) Reset() {
	e.checkpoint()
	e.params = params.Identity()
}

// ToggleBypass flips t in the bypass set. Bypass affects previews only.
func (e *Editor) ToggleBypass(t params.Tab) {
	e.bypass = e.bypass.Toggle(t)
}

// Render produces a preview with the given bypass set and shows it in the
// terminal. A result superseded by a newer request is not shown.
func (e *Editor) Render(ctx context.Context, bypass params.BypassSet) (render.Result, error) {
	if e.src == nil {
		return render.Result{}, ErrNoImage
	}
	tok := e.tracker.Next(e.path)
	res := e.renderer.Preview(ctx, e.src, e.params, bypass)
	if !e.tracker.Current(tok) {
		return res, nil
	}
	if res.Err != nil {
		fmt.Fprintf(e.out, "preview degraded: %v\n", res.Err)
	}
	if e.preview != nil {
		if err := e.preview.Show(res.Image); err != nil {
			e.log.Debug("terminal preview failed", "err", err)
		}
	}
	return res, nil
}

// LoadRecipe replaces the edit and bypass set with a saved recipe.
func (e *Editor) LoadRecipe(path string) error {
	r, err := params.LoadRecipe(path)
	if err != nil {
		return err
	}
	e.checkpoint()
	e.params = r.Params
	e.bypass = r.BypassSet()
	return nil
}

// SaveRecipe writes the current edit and bypass set to path.
func (e *Editor) SaveRecipe(path string) error {
	r := params.Recipe{Params: e.params, Bypass: make([]params.Tab, 0, len(e.bypass))}
	for _, t := range params.Tabs {
		if e.bypass.Has(t) {
			r.Bypass = append(r.Bypass, t)
		}
	}
	return params.SaveRecipe(path, r)
}

// Export renders the full-resolution image with every tab enabled and
// writes it to path. It returns the encoded size.
func (e *Editor) Export(ctx context.Context, path string) (int, error) {
	if e.src == nil {
		return 0, ErrNoImage
	}
	return e.renderer.ExportFile(ctx, e.src, e.params, path)
}

// Info describes the open image, its EXIF metadata and the active edit.
func (e *Editor) Info(w io.Writer) error {
	if e.src == nil {
		return ErrNoImage
	}
	fmt.Fprintln(w, e.path)
	fmt.Fprintln(w, DescribeImage(e.src, e.format, e.size))
	if m, err := codec.ReadMetadata(e.path); err == nil {
		WriteMetadata(w, m)
	}
	changed := Changed(e.params)
	if len(changed) == 0 {
		fmt.Fprintln(w, "No adjustments.")
	}
	for _, a := range changed {
		fmt.Fprintf(w, "  %s = %s\n", a.Key, a.Value(e.params))
	}
	if len(e.bypass) > 0 {
		fmt.Fprintf(w, "Bypassed: %s\n", e.bypass)
	}
	return nil
}
