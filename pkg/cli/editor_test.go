package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/config"
	"github.com/Fepozopo/darkroom/pkg/params"
)

func testConfig() *config.Config {
	return &config.Config{
		GPU:           true,
		PreviewMax:    1024,
		JPEGQuality:   90,
		ExportWorkers: 2,
		CullPadding:   200,
		LogLevel:      "warn",
	}
}

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// writeGray saves a w x h mid-gray PNG and returns its path.
func writeGray(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := codec.Save(path, makeSolidNRGBA(w, h, color.NRGBA{100, 100, 100, 255}), 0); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

func newTestEditor(script string, out *bytes.Buffer) *Editor {
	return NewEditor(testConfig(), WithIO(strings.NewReader(script), out), WithPreviewer(nil), WithoutFzf())
}

func TestEditorSession(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 40, 30)
	recipe := filepath.Join(dir, "look.yaml")
	exported := filepath.Join(dir, "out.png")

	script := strings.Join([]string{
		"/", "exposure", "0.5",
		"b", "light",
		"w", recipe,
		"s", exported,
		"z",
		"q",
	}, "\n") + "\n"

	var out bytes.Buffer
	ed := newTestEditor(script, &out)
	defer ed.Close()
	if err := ed.Open(src); err != nil {
		t.Fatal(err)
	}
	if err := ed.Loop(context.Background()); err != nil {
		t.Fatalf("Loop: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Set exposure = 0.5", "light bypassed", "Saved recipe to", "Saved to " + exported, "undone", "Exiting..."} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	// undo restored identity; the bypass toggle is not part of history
	if ed.Params().Exposure != 0 {
		t.Fatalf("undo did not restore exposure: %v", ed.Params().Exposure)
	}
	if !ed.Bypass().Has(params.TabLight) {
		t.Fatalf("light should still be bypassed")
	}

	r, err := params.LoadRecipe(recipe)
	if err != nil {
		t.Fatal(err)
	}
	if r.Params.Exposure != 0.5 || !r.BypassSet().Has(params.TabLight) {
		t.Fatalf("recipe = %+v bypass %v", r.Params.Exposure, r.Bypass)
	}

	// export ignores the preview bypass
	img, _, err := codec.Load(exported)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(5, 5).RGBA(); r>>8 < 130 {
		t.Fatalf("export not brightened: %d", r>>8)
	}
}

func TestEditorRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 8, 8)
	script := strings.Join([]string{
		"/", "hsl.orange", // ambiguous
		"/", "999", // out of list
		"/", "brightness", "3", // out of range
		"b", "sky",
		"z",
	}, "\n") + "\n"

	var out bytes.Buffer
	ed := newTestEditor(script, &out)
	defer ed.Close()
	if err := ed.Open(src); err != nil {
		t.Fatal(err)
	}
	// end of input ends the loop cleanly
	if err := ed.Loop(context.Background()); err != nil {
		t.Fatalf("Loop: %v", err)
	}
	text := out.String()
	for _, want := range []string{"ambiguous selection", "invalid selection", "input validation error", "unknown tab: sky", "nothing to undo"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if !ed.Params().IsIdentity() {
		t.Fatalf("params changed by rejected input")
	}
}

func TestEditorWithoutImage(t *testing.T) {
	var out bytes.Buffer
	ed := newTestEditor("/\ns\nq\n", &out)
	defer ed.Close()
	if err := ed.Loop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No image loaded") {
		t.Fatalf("missing no-image hint:\n%s", out.String())
	}
	if _, err := ed.Render(context.Background(), nil); !errors.Is(err, ErrNoImage) {
		t.Fatalf("Render err = %v", err)
	}
	if _, err := ed.Export(context.Background(), "x.png"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("Export err = %v", err)
	}
}

func TestEditorRenderAndReset(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 16, 16)
	var out bytes.Buffer
	ed := newTestEditor("", &out)
	defer ed.Close()
	if err := ed.Open(src); err != nil {
		t.Fatal(err)
	}
	if err := ed.Set("exposure", "1"); err != nil {
		t.Fatal(err)
	}

	res, err := ed.Render(context.Background(), ed.Bypass())
	if err != nil {
		t.Fatal(err)
	}
	if r := res.Image.NRGBAAt(0, 0).R; r < 190 {
		t.Fatalf("exposure +1 preview R = %d", r)
	}
	before, err := ed.Render(context.Background(), params.NewBypass(params.Tabs...))
	if err != nil {
		t.Fatal(err)
	}
	if r := before.Image.NRGBAAt(0, 0).R; r != 100 {
		t.Fatalf("bypass-all preview R = %d, want source", r)
	}

	ed.Reset()
	if !ed.Params().IsIdentity() {
		t.Fatalf("reset left adjustments")
	}
	if !ed.Undo() || ed.Params().Exposure != 1 {
		t.Fatalf("undo after reset should restore exposure")
	}
}

func TestEditorInfo(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 12, 9)
	var out bytes.Buffer
	ed := newTestEditor("", &out)
	defer ed.Close()
	if err := ed.Open(src); err != nil {
		t.Fatal(err)
	}
	_ = ed.Set("vignette", "-0.25")
	ed.ToggleBypass(params.TabEffects)

	var info bytes.Buffer
	if err := ed.Info(&info); err != nil {
		t.Fatal(err)
	}
	text := info.String()
	for _, want := range []string{"Format: png, 12 x 9", "vignette = -0.25", "Bypassed: effects"} {
		if !strings.Contains(text, want) {
			t.Fatalf("info missing %q:\n%s", want, text)
		}
	}
}
