package cli

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Fepozopo/darkroom/pkg/codec"
	"github.com/Fepozopo/darkroom/pkg/config"
	"github.com/Fepozopo/darkroom/pkg/gpu"
	"github.com/Fepozopo/darkroom/pkg/params"
	"github.com/Fepozopo/darkroom/pkg/pipeline"
	"github.com/Fepozopo/darkroom/pkg/render"
	"github.com/Fepozopo/darkroom/pkg/stdimg"
	"github.com/Fepozopo/darkroom/pkg/viewport"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// env is what a subcommand runs against.
type env struct {
	cfg *config.Config
	in  io.Reader
	out io.Writer
}

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"apply", "[flags] INPUT OUTPUT", "render INPUT with a recipe at full resolution", runApply},
		{"preview", "[flags] INPUT", "render a capped preview to the terminal or a file", runPreview},
		{"batch", "[flags] INPUT...", "export many images with one recipe in parallel", runBatch},
		{"cull", "[flags] LAYOUT", "list the canvas items visible in a layout's viewport", runCull},
		{"shaders", "[flags] [PROGRAM...]", "compile the GPU programs to SPIR-V", runShaders},
		{"stages", "[flags]", "list the filter stages and which ones a recipe runs", runStages},
		{"info", "FILE...", "show image dimensions and EXIF metadata", runInfo},
		{"update", "", "check for and install a newer release", runUpdate},
		{"version", "", "print the version", runVersion},
		{"help", "", "show this help", runHelp},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func humanBytes(n int) string { return humanize.Bytes(uint64(n)) }

func newFlagSet(e *env, name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.out)
	fs.Usage = func() {
		fmt.Fprintf(e.out, "Usage: darkroom %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// editFlags are the recipe, --set and --bypass flags shared by the
// rendering subcommands.
type editFlags struct {
	recipe string
	sets   []string
	bypass string
}

func addEditFlags(fs *pflag.FlagSet, withBypass bool) *editFlags {
	f := &editFlags{}
	fs.StringVarP(&f.recipe, "recipe", "r", "", "recipe file (.yaml or .json)")
	fs.StringArrayVarP(&f.sets, "set", "s", nil, "adjustment as key=value, repeatable (applied after the recipe)")
	if withBypass {
		fs.StringVarP(&f.bypass, "bypass", "b", "", "comma separated tabs to bypass, or \"all\"")
	}
	return f
}

// resolve builds the edit: identity, then the recipe, then --set values.
// A --bypass flag replaces the recipe's bypass set.
func (f *editFlags) resolve() (params.EditParameters, params.BypassSet, error) {
	p, bypass := params.Identity(), params.NewBypass()
	if f.recipe != "" {
		r, err := params.LoadRecipe(f.recipe)
		if err != nil {
			return p, nil, err
		}
		p, bypass = r.Params, r.BypassSet()
	}
	if err := ApplyAssignments(&p, f.sets); err != nil {
		return p, nil, err
	}
	if f.bypass != "" {
		b, err := params.ParseBypass(f.bypass)
		if err != nil {
			return p, nil, err
		}
		bypass = b
	}
	return p, bypass, nil
}

func runApply(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "apply", "[flags] INPUT OUTPUT")
	edit := addEditFlags(fs, false)
	cpu := fs.Bool("cpu", false, "render on the CPU even if the GPU is enabled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("apply: need INPUT and OUTPUT")
	}
	p, _, err := edit.resolve()
	if err != nil {
		return err
	}
	src, _, err := codec.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	rcfg := rendererConfig(e.cfg)
	rcfg.UseGPU = rcfg.UseGPU && !*cpu
	r := render.New(rcfg)
	defer r.Close()

	start := time.Now()
	n, err := r.ExportFile(ctx, src, p, fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "wrote %s (%s) in %s\n", fs.Arg(1), humanBytes(n), time.Since(start).Round(time.Millisecond))
	return nil
}

func runPreview(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "preview", "[flags] INPUT")
	edit := addEditFlags(fs, true)
	outPath := fs.StringP("out", "o", "", "write the preview to this file instead of the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("preview: need INPUT")
	}
	p, bypass, err := edit.resolve()
	if err != nil {
		return err
	}
	src, f, err := codec.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	r := render.New(rendererConfig(e.cfg))
	defer r.Close()
	res := r.Preview(ctx, src, p, bypass)
	if res.Err != nil {
		fmt.Fprintf(e.out, "preview degraded: %v\n", res.Err)
	}
	b := res.Image.Bounds()
	fmt.Fprintf(e.out, "[%s] %dx%d preview of %s\n", res.Backend, b.Dx(), b.Dy(), DescribeImage(src, f, 0))

	if *outPath != "" {
		return codec.Save(*outPath, res.Image, e.cfg.JPEGQuality)
	}
	pv := &Previewer{Format: codec.PNG, Quality: e.cfg.JPEGQuality, Out: e.out}
	return pv.Show(res.Image)
}

// batchOutput names the export of input inside dir (input's own directory
// when dir is empty).
func batchOutput(input, dir, suffix string, f codec.Format) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+suffix+f.Extension())
}

func runBatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "batch", "[flags] INPUT...")
	edit := addEditFlags(fs, false)
	dir := fs.StringP("out-dir", "d", "", "output directory (default: next to each input)")
	format := fs.StringP("format", "f", "jpg", "output format: jpg, png, tif, bmp or gif")
	suffix := fs.String("suffix", "_edit", "appended to each output file name")
	workers := fs.IntP("workers", "w", e.cfg.ExportWorkers, "parallel export workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("batch: no inputs")
	}
	f, err := codec.ParseFormat(*format)
	if err != nil {
		return err
	}
	p, _, err := edit.resolve()
	if err != nil {
		return err
	}
	if *dir != "" {
		if err := os.MkdirAll(*dir, 0o755); err != nil {
			return err
		}
	}

	jobs := make([]render.Job, 0, fs.NArg())
	seen := make(map[string]string, fs.NArg())
	for _, in := range fs.Args() {
		out := batchOutput(in, *dir, *suffix, f)
		if filepath.Clean(out) == filepath.Clean(in) {
			return fmt.Errorf("batch: output %s would overwrite its input", out)
		}
		if prev, dup := seen[out]; dup {
			return fmt.Errorf("batch: %s and %s both export to %s", prev, in, out)
		}
		seen[out] = in
		jobs = append(jobs, render.Job{Input: in, Output: out, Params: p})
	}

	start := time.Now()
	results, err := render.ExportBatch(ctx, jobs, *workers, rendererConfig(e.cfg))
	if err != nil {
		return err
	}
	total := 0
	for _, r := range results {
		total += r.Bytes
		fmt.Fprintf(e.out, "%s -> %s (%s, %s)\n", r.Job.Input, r.Job.Output, humanBytes(r.Bytes), r.Backend)
	}
	fmt.Fprintf(e.out, "exported %d images, %s in %s\n", len(results), humanBytes(total), time.Since(start).Round(time.Millisecond))
	return nil
}

func runCull(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "cull", "[flags] LAYOUT")
	padding := fs.Float64P("padding", "p", viewport.DefaultPadding, "culling padding in world units (default: layout, then config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("cull: need LAYOUT")
	}
	l, err := viewport.LoadLayout(fs.Arg(0))
	if err != nil {
		return err
	}
	pad := e.cfg.CullPadding
	switch {
	case fs.Changed("padding"):
		pad = *padding
	case l.Padding != nil:
		pad = l.EffectivePadding()
	}

	visible := viewport.Visible(l.Items, l.Viewport, pad)
	if r, ok := viewport.WorldBounds(l.Viewport, pad); ok {
		fmt.Fprintf(e.out, "world bounds: (%g, %g) - (%g, %g)\n", r.MinX, r.MinY, r.MaxX, r.MaxY)
	} else {
		fmt.Fprintln(e.out, "world bounds: none (scale <= 0)")
	}
	for _, it := range visible {
		fmt.Fprintf(e.out, "%s\t%s\n", it.ID, it.Path)
	}
	fmt.Fprintf(e.out, "%d of %d items visible\n", len(visible), len(l.Items))
	return nil
}

// spirvBytes serializes SPIR-V words little-endian.
func spirvBytes(words []uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

func runShaders(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "shaders", "[flags] [PROGRAM...]")
	outDir := fs.StringP("out-dir", "d", "", "write PROGRAM.spv files here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	compiled, err := gpu.CompileShaders(fs.Args()...)
	if err != nil {
		return err
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
	}
	for _, name := range gpu.SortedNames(compiled) {
		words := compiled[name]
		fmt.Fprintf(e.out, "%-16s %6d words  %s\n", name, len(words), humanBytes(len(words)*4))
		if *outDir == "" {
			continue
		}
		if err := codec.WriteFile(filepath.Join(*outDir, name+".spv"), spirvBytes(words)); err != nil {
			return err
		}
	}
	return nil
}

func runStages(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "stages", "[flags]")
	edit := addEditFlags(fs, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, bypass, err := edit.resolve()
	if err != nil {
		return err
	}
	active := make(map[string]bool)
	for _, name := range pipeline.ActiveNames(p, bypass) {
		active[name] = true
	}
	for _, s := range stdimg.Stages {
		mark := " "
		switch {
		case active[s.Name]:
			mark = "*"
		case bypass.Has(s.Tab):
			mark = "-"
		}
		tab := string(s.Tab)
		if tab == "" {
			tab = "always"
		}
		fmt.Fprintf(e.out, "%s %-13s %-8s %s\n", mark, s.Name, tab, s.Description)
	}
	return nil
}

func runInfo(_ context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("info: need FILE")
	}
	for i, path := range args {
		if i > 0 {
			fmt.Fprintln(e.out)
		}
		img, f, err := codec.Load(path)
		if err != nil {
			return err
		}
		var size int64
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
		fmt.Fprintln(e.out, path)
		fmt.Fprintln(e.out, DescribeImage(img, f, size))
		if m, err := codec.ReadMetadata(path); err == nil {
			WriteMetadata(e.out, m)
		}
	}
	return nil
}

func runUpdate(ctx context.Context, e *env, _ []string) error {
	return CheckForUpdates(ctx, NewPrompter(e.in, e.out), e.out)
}

func runVersion(_ context.Context, e *env, _ []string) error {
	fmt.Fprintln(e.out, "darkroom "+Version)
	return nil
}

func runHelp(_ context.Context, e *env, _ []string) error {
	fmt.Fprintln(e.out, "Usage: darkroom [global flags] [IMAGE]")
	fmt.Fprintln(e.out, "       darkroom [global flags] COMMAND [flags] ARGS")
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, "Without a command, darkroom starts the interactive editor.")
	fmt.Fprintln(e.out)
	fmt.Fprintln(e.out, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(e.out, "  %-8s %s\n", c.name, c.summary)
	}
	return nil
}
