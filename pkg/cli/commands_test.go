package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/params"
)

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), testConfig(), strings.NewReader(""), &out, args)
	return out.String(), err
}

func writeRecipe(t *testing.T, dir string, p params.EditParameters, bypass ...params.Tab) string {
	t.Helper()
	path := filepath.Join(dir, "recipe.yaml")
	if err := params.SaveRecipe(path, params.Recipe{Params: p, Bypass: bypass}); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 20, 10)
	p := params.Identity()
	p.Exposure = 1
	recipe := writeRecipe(t, dir, p, params.TabLight)
	out := filepath.Join(dir, "out.png")

	text, err := runArgs(t, "apply", "--recipe", recipe, "--set", "filters.invert=on", src, out)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(text, "wrote "+out) {
		t.Fatalf("output = %q", text)
	}
	img, _, err := codec.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("export size = %v", img.Bounds())
	}
	// exposure doubles 100 to 200 even though the recipe bypasses light,
	// then invert gives 55
	if r, _, _, _ := img.At(3, 3).RGBA(); r>>8 < 50 || r>>8 > 60 {
		t.Fatalf("pixel = %d, want about 55", r>>8)
	}
}

func TestApplyCommandCPU(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 6, 6)
	out := filepath.Join(dir, "out.jpg")
	if _, err := runArgs(t, "apply", "--cpu", "-s", "exposure=1", src, out); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}

func TestApplyCommandErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 4, 4)
	if _, err := runArgs(t, "apply", src); err == nil {
		t.Fatalf("expected usage error")
	}
	if _, err := runArgs(t, "apply", "--set", "exposure=9", src, filepath.Join(dir, "o.png")); err == nil {
		t.Fatalf("expected range error")
	}
	if _, err := runArgs(t, "apply", src, filepath.Join(dir, "o.webp")); err == nil {
		t.Fatalf("expected webp export error")
	}
	if _, err := os.Stat(filepath.Join(dir, "o.webp")); !os.IsNotExist(err) {
		t.Fatalf("failed export left a file behind")
	}
}

func TestPreviewCommandToFile(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 30, 20)
	out := filepath.Join(dir, "preview.png")
	text, err := runArgs(t, "preview", "--set", "exposure=1", "--bypass", "all", "-o", out, src)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(text, "30x20 preview") {
		t.Fatalf("output = %q", text)
	}
	img, _, err := codec.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 100 {
		t.Fatalf("bypassed preview changed the image: %d", r>>8)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	inputs := []string{
		writeGray(t, dir, "a.png", 8, 8),
		writeGray(t, dir, "b.png", 9, 7),
		writeGray(t, dir, "c.png", 5, 5),
	}
	args := append([]string{"batch", "-s", "vignette=0.5", "-d", outDir, "-f", "png", "-w", "2"}, inputs...)
	text, err := runArgs(t, args...)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(text, "exported 3 images") {
		t.Fatalf("output = %q", text)
	}
	for _, name := range []string{"a_edit.png", "b_edit.png", "c_edit.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestBatchRejectsCollisions(t *testing.T) {
	dir := t.TempDir()
	a := writeGray(t, dir, "a.png", 4, 4)
	if _, err := runArgs(t, "batch", "--suffix", "", "-f", "png", a); err == nil {
		t.Fatalf("expected overwrite error")
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	b := writeGray(t, sub, "a.png", 4, 4)
	if _, err := runArgs(t, "batch", "-d", filepath.Join(dir, "out"), a, b); err == nil {
		t.Fatalf("expected duplicate output error")
	}
}

func TestBatchOutput(t *testing.T) {
	if got := batchOutput("/x/photo.raw.png", "", "_edit", codec.JPEG); got != "/x/photo.raw_edit.jpg" {
		t.Fatalf("got %q", got)
	}
	if got := batchOutput("photo.png", "/out", "", codec.TIFF); got != "/out/photo.tif" {
		t.Fatalf("got %q", got)
	}
}

const testLayout = `
viewport:
  pan_x: 0
  pan_y: 0
  scale: 1
  width: 100
  height: 100
items:
  - id: near
    path: near.jpg
    x: 0
    y: 0
    width: 50
    height: 50
  - id: edge
    x: 290
    y: 0
    width: 10
    height: 10
  - id: far
    x: 1000
    y: 1000
    width: 10
    height: 10
`

func TestCullCommand(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.yaml")
	if err := os.WriteFile(layout, []byte(testLayout), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := runArgs(t, "cull", layout)
	if err != nil {
		t.Fatalf("cull: %v", err)
	}
	if !strings.Contains(text, "world bounds: (-200, -200) - (300, 300)") {
		t.Fatalf("output = %q", text)
	}
	if !strings.Contains(text, "near\tnear.jpg") || !strings.Contains(text, "2 of 3 items visible") {
		t.Fatalf("output = %q", text)
	}

	text, err = runArgs(t, "cull", "--padding", "0", layout)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "1 of 3 items visible") {
		t.Fatalf("zero padding output = %q", text)
	}
}

func TestStagesCommand(t *testing.T) {
	text, err := runArgs(t, "stages", "--set", "exposure=1", "--set", "grain=0.2", "--bypass", "effects")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 19 {
		t.Fatalf("expected 19 stages, got %d:\n%s", len(lines), text)
	}
	if !strings.HasPrefix(lines[2], "* exposure") {
		t.Fatalf("exposure line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[16], "- grain") {
		t.Fatalf("grain line = %q", lines[16])
	}
	if !strings.HasPrefix(lines[0], "  curves") {
		t.Fatalf("curves line = %q", lines[0])
	}
}

func TestInfoVersionHelp(t *testing.T) {
	dir := t.TempDir()
	src := writeGray(t, dir, "in.png", 1200, 800)

	text, err := runArgs(t, "info", src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Format: png, 1,200 x 800") {
		t.Fatalf("info = %q", text)
	}

	text, _ = runArgs(t, "version")
	if !strings.Contains(text, Version) {
		t.Fatalf("version = %q", text)
	}

	text, _ = runArgs(t, "help")
	for _, c := range commands {
		if !strings.Contains(text, c.name) {
			t.Fatalf("help missing %s", c.name)
		}
	}

	if _, err := runArgs(t, "info"); err == nil {
		t.Fatalf("info without files should fail")
	}
	if _, err := runArgs(t, "frobnicate", "x"); err == nil {
		t.Fatalf("unknown command should fail")
	}
}

func TestSpirvBytes(t *testing.T) {
	got := spirvBytes([]uint32{0x07230203, 1})
	want := []byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x", got)
	}
}
