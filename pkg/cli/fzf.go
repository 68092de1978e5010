package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// imageGlobs are the file patterns offered by the file picker.
var imageGlobs = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.tif", "*.tiff", "*.bmp", "*.webp"}

// fzfAvailable reports whether fzf is on PATH.
func fzfAvailable() bool {
	_, err := exec.LookPath("fzf")
	return err == nil
}

// SelectAdjustmentWithFzf displays the adjustments in fzf, with their current
// values from current, and returns the selected key.
func SelectAdjustmentWithFzf(adjs []Adjustment, current func(Adjustment) string) (string, error) {
	var b strings.Builder
	for _, a := range adjs {
		// "key: description = value"
		fmt.Fprintf(&b, "%s: %s = %s\n", a.Key, a.Description, current(a))
	}

	cmd := exec.Command("fzf", "--prompt=Adjust> ")
	cmd.Stdin = strings.NewReader(b.String())

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	return parseFzfSelection(out.String())
}

// parseFzfSelection extracts the key from a "key: ..." fzf line.
func parseFzfSelection(selection string) (string, error) {
	selection = strings.TrimSpace(selection)
	key, _, _ := strings.Cut(selection, ":")
	if key = strings.TrimSpace(key); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no adjustment selected")
}

// previewCommand picks the fzf --preview renderer for the detected terminal.
// fzf's preview line cannot hold shell functions, so fallbacks are || chains.
func previewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		// Clear the previous kitty image first so previews don't pile up.
		return "printf \"\\x1b_Ga=d\\x1b\\\\\"; kitty +kitten icat --silent {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	case isSixelCapable():
		return "img2sixel {} 2>/dev/null || " + chafa
	default:
		return chafa
	}
}

// findExpr builds the find(1) name filter for imageGlobs.
func findExpr() string {
	parts := make([]string, len(imageGlobs))
	for i, g := range imageGlobs {
		parts[i] = "-iname '" + g + "'"
	}
	return "\\( " + strings.Join(parts, " -o ") + " \\)"
}

// SelectFileWithFzf launches fzf over the images found under startDir and
// returns the selected path. It requires find, bash and fzf on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"find %s -type f %s | fzf --height 100%% --border --prompt='Files> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		findExpr(),
		previewCommand(),
	)
	cmd := exec.Command("bash", "-lc", cmdStr)

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	// the previewer leaves kitty images behind either way
	clearKittyImages()
	if err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}

	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}

// clearKittyImages emits the kitty graphics "delete" control sequence.
// Terminals that don't understand it will ignore it.
func clearKittyImages() {
	if !isKitty() {
		return
	}
	fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
}
