// Package cli is the darkroom command line: an interactive editor plus the
// apply, batch, preview, cull, shaders, stages, info and update subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Fepozopo/darkroom/pkg/config"
	"github.com/Fepozopo/darkroom/pkg/params"
)

// Version is set at build time:
//
//	go build -ldflags "-X github.com/Fepozopo/darkroom/pkg/cli.Version=1.2.0"
var Version = "0.0.0-dev"

func usage(w io.Writer) {
	fmt.Fprintln(w, "Commands available:")
	fmt.Fprintln(w, "  /  - select and set an adjustment")
	fmt.Fprintln(w, "  b  - toggle bypass for a tab (curves, light, color, effects)")
	fmt.Fprintln(w, "  c  - compare: show the unedited image")
	fmt.Fprintln(w, "  p  - preview current edit")
	fmt.Fprintln(w, "  z  - undo last change")
	fmt.Fprintln(w, "  r  - reset all adjustments")
	fmt.Fprintln(w, "  l  - load recipe")
	fmt.Fprintln(w, "  w  - write recipe")
	fmt.Fprintln(w, "  s  - export edited image")
	fmt.Fprintln(w, "  o  - open another image")
	fmt.Fprintln(w, "  i  - image info and active adjustments")
	fmt.Fprintln(w, "  u  - check for updates")
	fmt.Fprintln(w, "  h  - show this help message")
	fmt.Fprintln(w, "  q  - quit")
}

// Run dispatches args to a subcommand, or starts the interactive editor
// with an optional image path.
func Run(ctx context.Context, cfg *config.Config, args []string) error {
	return run(ctx, cfg, os.Stdin, os.Stdout, args)
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, args []string) error {
	SetPreviewDebug(cfg.PreviewDebug)
	if len(args) > 0 {
		if cmd, ok := lookupCommand(args[0]); ok {
			return cmd.run(ctx, &env{cfg: cfg, in: in, out: out}, args[1:])
		}
	}
	if len(args) > 1 {
		return fmt.Errorf("unknown command %q", args[0])
	}

	ed := NewEditor(cfg, WithIO(in, out))
	defer ed.Close()
	if len(args) == 1 {
		if err := ed.Open(args[0]); err != nil {
			return err
		}
	}
	return ed.Loop(ctx)
}

// Loop runs the interactive editor until 'q', end of input or ctx is done.
func (e *Editor) Loop(ctx context.Context) error {
	fmt.Fprintln(e.out, "darkroom "+Version)
	if e.src != nil {
		e.show(ctx)
	}
	usage(e.out)

	for ctx.Err() == nil {
		line, err := e.prompt.Line("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '/':
			if e.src == nil {
				fmt.Fprintln(e.out, "No image loaded. Press 'o' to open an image first, or provide an image path as the first argument.")
				continue
			}
			key, ok := e.selectAdjustment()
			if !ok {
				continue
			}
			a, _ := LookupAdjustment(key)
			fmt.Fprintln(e.out, "\n"+a.Tooltip())
			raw, perr := e.prompt.Line(fmt.Sprintf("%s [%s]: ", a.Key, a.Value(e.params)))
			if perr != nil {
				fmt.Fprintf(e.out, "input error: %v\n", perr)
				continue
			}
			if raw == "" && a.Type != ParamTypeCurve {
				fmt.Fprintln(e.out, "unchanged")
				continue
			}
			if err := e.Set(a.Key, raw); err != nil {
				fmt.Fprintf(e.out, "input validation error: %v\n", err)
				continue
			}
			fmt.Fprintf(e.out, "Set %s = %s\n", a.Key, a.Value(e.params))
			e.show(ctx)

		case 'b':
			tab, ok := e.selectTab()
			if !ok {
				continue
			}
			e.ToggleBypass(tab)
			state := "enabled"
			if e.bypass.Has(tab) {
				state = "bypassed"
			}
			fmt.Fprintf(e.out, "%s %s\n", tab, state)
			e.show(ctx)

		case 'c':
			if e.src == nil {
				fmt.Fprintln(e.out, ErrNoImage)
				continue
			}
			fmt.Fprintln(e.out, "Before:")
			if _, err := e.Render(ctx, params.NewBypass(params.Tabs...)); err != nil {
				fmt.Fprintf(e.out, "preview error: %v\n", err)
			}

		case 'p':
			e.show(ctx)

		case 'z':
			if !e.Undo() {
				fmt.Fprintln(e.out, "nothing to undo")
				continue
			}
			fmt.Fprintln(e.out, "undone")
			e.show(ctx)

		case 'r':
			e.Reset()
			fmt.Fprintln(e.out, "all adjustments reset")
			e.show(ctx)

		case 'l':
			path, _ := e.prompt.LineOrFzf("Recipe to load: ")
			if path == "" {
				fmt.Fprintln(e.out, "load cancelled")
				continue
			}
			if err := e.LoadRecipe(path); err != nil {
				fmt.Fprintf(e.out, "failed to load recipe: %v\n", err)
				continue
			}
			fmt.Fprintf(e.out, "Loaded %s\n", path)
			e.show(ctx)

		case 'w':
			path, _ := e.prompt.Line("Recipe filename (.yaml or .json): ")
			if path == "" {
				fmt.Fprintln(e.out, "no filename provided")
				continue
			}
			if err := e.SaveRecipe(path); err != nil {
				fmt.Fprintf(e.out, "failed to write recipe: %v\n", err)
				continue
			}
			fmt.Fprintf(e.out, "Saved recipe to %s\n", path)

		case 's':
			if e.src == nil {
				fmt.Fprintln(e.out, ErrNoImage)
				continue
			}
			path, _ := e.prompt.Line("Enter output filename: ")
			if path == "" {
				fmt.Fprintln(e.out, "no filename provided")
				continue
			}
			n, err := e.Export(ctx, path)
			if err != nil {
				fmt.Fprintf(e.out, "failed to export image: %v\n", err)
				continue
			}
			fmt.Fprintf(e.out, "Saved to %s (%s)\n", path, humanBytes(n))

		case 'o':
			var path string
			if e.prompt.fzf {
				path, _ = SelectFileWithFzf(".")
			}
			if path == "" {
				path, _ = e.prompt.Line("Enter path to image to open (leave empty to cancel): ")
			}
			if path == "" {
				fmt.Fprintln(e.out, "open cancelled")
				continue
			}
			if err := e.Open(path); err != nil {
				fmt.Fprintf(e.out, "failed to read image: %v\n", err)
				continue
			}
			fmt.Fprintf(e.out, "Opened %s\n", path)
			e.show(ctx)

		case 'i':
			if err := e.Info(e.out); err != nil {
				fmt.Fprintln(e.out, err)
			}

		case 'u':
			if err := CheckForUpdates(ctx, e.prompt, e.out); err != nil {
				fmt.Fprintf(e.out, "update check error: %v\n", err)
			}

		case 'h':
			usage(e.out)

		case 'q':
			fmt.Fprintln(e.out, "Exiting...")
			return nil
		}
	}
	return ctx.Err()
}

// show renders the current edit and prints a one-line summary.
func (e *Editor) show(ctx context.Context) {
	if e.src == nil {
		return
	}
	res, err := e.Render(ctx, e.bypass)
	if err != nil {
		fmt.Fprintf(e.out, "preview error: %v\n", err)
		return
	}
	b := res.Image.Bounds()
	fmt.Fprintf(e.out, "[%s] %dx%d preview of %s\n", res.Backend, b.Dx(), b.Dy(), DescribeImage(e.src, e.format, e.size))
}

// selectAdjustment asks for an adjustment through fzf or, failing that, a
// numbered list that also accepts names and unique prefixes.
func (e *Editor) selectAdjustment() (string, bool) {
	if e.prompt.fzf {
		key, err := SelectAdjustmentWithFzf(Adjustments, func(a Adjustment) string { return a.Value(e.params) })
		if err == nil {
			if _, ok := LookupAdjustment(key); ok {
				return key, true
			}
		}
	}

	fmt.Fprintln(e.out, "Adjustment selection (fallback):")
	for i, a := range Adjustments {
		fmt.Fprintf(e.out, "  %d) %s = %s\n", i+1, a.Key, a.Value(e.params))
	}
	selection, _ := e.prompt.Line("Enter number or adjustment name (leave empty to cancel): ")
	if selection == "" {
		fmt.Fprintln(e.out, "selection cancelled")
		return "", false
	}
	if idx, err := strconv.Atoi(selection); err == nil {
		if idx < 1 || idx > len(Adjustments) {
			fmt.Fprintln(e.out, "invalid selection")
			return "", false
		}
		return Adjustments[idx-1].Key, true
	}
	key, candidates := resolveAdjustment(selection)
	if key != "" {
		return key, true
	}
	if len(candidates) > 1 {
		fmt.Fprintln(e.out, "ambiguous selection, candidates:")
		for _, c := range candidates {
			fmt.Fprintln(e.out, "  "+c)
		}
		return "", false
	}
	fmt.Fprintf(e.out, "unknown adjustment: %s\n", selection)
	return "", false
}

func (e *Editor) selectTab() (params.Tab, bool) {
	names := make([]string, len(params.Tabs))
	for i, t := range params.Tabs {
		mark := " "
		if e.bypass.Has(t) {
			mark = "x"
		}
		names[i] = fmt.Sprintf("[%s] %s", mark, t)
	}
	fmt.Fprintln(e.out, strings.Join(names, "  "))
	sel, _ := e.prompt.Line("Tab to toggle: ")
	sel = strings.ToLower(sel)
	for _, t := range params.Tabs {
		if string(t) == sel {
			return t, true
		}
	}
	if sel != "" {
		fmt.Fprintf(e.out, "unknown tab: %s\n", sel)
	}
	return params.TabNone, false
}
