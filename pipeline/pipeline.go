// Package pipeline translates one source file into one target language.
//
// A Markdown document goes through these steps:
//
//  1. Load the source text.
//  2. Protect boilerplate with placeholder tokens.
//  3. Strip the force-translate and written-in-English markers.
//  4. Extract, translate and re-serialize the front matter.
//  5. Split the body into segments and translate each one.
//  6. Reassemble front matter and body.
//  7. Restore placeholder tokens to the target-language boilerplate.
//  8. Write the result under the language's output root.
//
// Media files are copied byte for byte. Recording the file in the ledger is
// left to the caller, which knows when every language of a file is done.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/mdtranslate/mdfile"
	"github.com/minios-linux/mdtranslate/placeholder"
	"github.com/minios-linux/mdtranslate/segment"
	"github.com/minios-linux/mdtranslate/translate"
)

// ---------------------------------------------------------------------------
// Markers
// ---------------------------------------------------------------------------

const (
	// ForceMarker forces translation even for excluded or already
	// processed files. It is removed from every output.
	ForceMarker = "\n[translate]\n"
	// EnglishMarker flags a post originally written in English. No English
	// output is produced for it, and it is removed from the others.
	EnglishMarker = "\n> This post was originally written in English.\n"
)

// StripMarkers removes the markers that must not reach the output for lang.
func StripMarkers(text, lang string) string {
	text = strings.ReplaceAll(text, ForceMarker, "")
	if lang != "en" {
		text = strings.ReplaceAll(text, EnglishMarker, "")
	}
	return text
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// Kind classifies a source file.
type Kind int

const (
	// KindMarkdown is a translatable Markdown document.
	KindMarkdown Kind = iota
	// KindMedia is an image or video copied verbatim.
	KindMedia
)

func (k Kind) String() string {
	if k == KindMedia {
		return "media"
	}
	return "markdown"
}

var mediaExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".bmp": true, ".ico": true, ".avif": true,
	".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true,
}

// Classify returns the kind of a file by extension. ok is false for files
// that are neither Markdown nor media.
func Classify(name string) (kind Kind, ok bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".md":
		return KindMarkdown, true
	case mediaExts[ext]:
		return KindMedia, true
	}
	return 0, false
}

// Task is one (file, language) work item.
type Task struct {
	// RelPath is the path relative to the input root, slash-separated.
	RelPath string
	// AbsPath is the source file path.
	AbsPath string
	// Lang is the target language code.
	Lang string
	// Kind is the file kind.
	Kind Kind
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrFileSystem wraps read, write and mkdir failures.
var ErrFileSystem = errors.New("file system error")

// ItemError is a failure of one (file, language) item.
type ItemError struct {
	RelPath string
	Lang    string
	Err     error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.RelPath, e.Lang, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func fsError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFileSystem, op, err)
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Config holds the pipeline settings.
type Config struct {
	// BodyRules protects boilerplate in the whole document.
	BodyRules *placeholder.Registry
	// FrontMatterRules is applied to replace-fixed front matter fields.
	FrontMatterRules *placeholder.Registry
	// Policies overrides the front matter field policies.
	Policies map[string]mdfile.FieldPolicy
	// MaxLength bounds body segments, in code points.
	MaxLength int
	// OutputRoots maps language codes to output directories.
	OutputRoots map[string]string
	// OutputExt replaces the extension of Markdown outputs ("" keeps it).
	OutputExt string
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// Verbose enables per-segment logging.
	Verbose bool
}

// Pipeline runs document translations. It holds no per-document state and
// is safe for concurrent use.
type Pipeline struct {
	tr  translate.Translator
	cfg Config
	fm  *mdfile.Translator
}

// New creates a pipeline that sends text to tr.
func New(tr translate.Translator, cfg Config) *Pipeline {
	if cfg.BodyRules == nil {
		cfg.BodyRules = placeholder.New(nil)
	}
	if cfg.FrontMatterRules == nil {
		cfg.FrontMatterRules = placeholder.New(nil)
	}
	return &Pipeline{
		tr:  tr,
		cfg: cfg,
		fm: &mdfile.Translator{
			Gateway:  tr,
			Rules:    cfg.FrontMatterRules,
			Policies: cfg.Policies,
		},
	}
}

func (p *Pipeline) debug(format string, args ...any) {
	if p.cfg.Verbose && p.cfg.OnLog != nil {
		p.cfg.OnLog(format, args...)
	}
}

// OutputPath returns where the output for relPath in lang is written.
func (p *Pipeline) OutputPath(relPath, lang string, kind Kind) (string, error) {
	root, ok := p.cfg.OutputRoots[lang]
	if !ok || root == "" {
		return "", fmt.Errorf("no output directory configured for %q", lang)
	}
	out := filepath.Join(root, filepath.FromSlash(relPath))
	if kind == KindMarkdown && p.cfg.OutputExt != "" {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + p.cfg.OutputExt
	}
	return out, nil
}

// Process translates or copies one file and returns the output path.
// Errors are *ItemError.
func (p *Pipeline) Process(ctx context.Context, task Task) (string, error) {
	out, err := p.process(ctx, task)
	if err != nil {
		return "", &ItemError{RelPath: task.RelPath, Lang: task.Lang, Err: err}
	}
	return out, nil
}

func (p *Pipeline) process(ctx context.Context, task Task) (string, error) {
	out, err := p.OutputPath(task.RelPath, task.Lang, task.Kind)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if task.Kind == KindMedia {
		if err := copyFile(task.AbsPath, out); err != nil {
			return "", err
		}
		return out, nil
	}

	data, err := os.ReadFile(task.AbsPath)
	if err != nil {
		return "", fsError("reading source", err)
	}
	text, err := p.TranslateText(ctx, string(data), task.Lang)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fsError("creating output directory", err)
	}
	if err := os.WriteFile(out, []byte(text), 0644); err != nil {
		return "", fsError("writing output", err)
	}
	return out, nil
}

// TranslateText runs the text steps of the pipeline on a whole document.
// CRLF line endings are converted to LF; the output always uses LF.
func (p *Pipeline) TranslateText(ctx context.Context, text, lang string) (string, error) {
	text = segment.NormalizeNewlines(text)
	text, restore := p.cfg.BodyRules.Protect(text, lang)
	text = StripMarkers(text, lang)

	var header string
	raw, body, hasFM := mdfile.Extract(text)
	if hasFM {
		fm, err := mdfile.Parse(raw)
		if err != nil {
			return "", err
		}
		translated, err := p.fm.Translate(ctx, fm, lang)
		if err != nil {
			return "", err
		}
		serialized, err := mdfile.Serialize(translated)
		if err != nil {
			return "", err
		}
		header = mdfile.Marker + "\n" + serialized + mdfile.Marker + "\n\n"
		body = strings.TrimLeft(body, "\n")
	}

	segments := segment.Split(body, p.cfg.MaxLength)
	translated := make([]string, len(segments))
	for i, seg := range segments {
		if segment.Blank(seg) {
			translated[i] = seg
			continue
		}
		p.debug("  segment %d/%d (%d chars) -> %s", i+1, len(segments), segment.Len(seg), lang)
		out, err := p.tr.Translate(ctx, seg, lang, translate.ContentMainBody)
		if err != nil {
			return "", fmt.Errorf("segment %d/%d: %w", i+1, len(segments), err)
		}
		translated[i] = out
	}

	return restore.Restore(header + segment.Join(translated)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fsError("reading source", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fsError("creating output directory", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fsError("writing output", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fsError("copying", err)
	}
	if err := out.Close(); err != nil {
		return fsError("writing output", err)
	}
	return nil
}
