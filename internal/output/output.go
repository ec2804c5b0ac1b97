// Package output implements the two result encodings (human and JSONL)
// and the error sink described in spec.md §6/C7. Writers are not
// responsible for concurrency: internal/engine serializes calls to them
// under a mutex in unstable mode, and calls them single-threaded during
// the stable-mode drain.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/standardbeagle/zenithsearch/internal/model"
	"github.com/standardbeagle/zenithsearch/internal/textutil"
)

// Writer is the sink the engine emits match and summary records to.
type Writer interface {
	WriteMatch(m model.MatchRecord)
	WriteFileSummary(s model.FileMatchSummary)
}

// ErrorWriter is the sink for per-path diagnostics (spec.md §6: "one
// message per line ... prefixed with the originating path when
// applicable").
type ErrorWriter interface {
	WriteError(path string, err error)
}

// StreamErrorWriter writes one "path: message" line per call. It is
// safe for concurrent use.
type StreamErrorWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewStreamErrorWriter(out io.Writer) *StreamErrorWriter {
	return &StreamErrorWriter{out: out}
}

func (w *StreamErrorWriter) WriteError(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path != "" {
		fmt.Fprintf(w.out, "%s: %v\n", path, err)
	} else {
		fmt.Fprintf(w.out, "%v\n", err)
	}
}

// HumanWriter renders spec.md §6's human form. When color is enabled
// (the CLI wires this to a TTY check via golang.org/x/term) the path
// prefix is highlighted, mirroring common grep-family tooling; JSONL
// output never uses it.
type HumanWriter struct {
	out        *bufio.Writer
	mode       model.OutputMode
	noSnippet  bool
	color      bool
	pathColor  *color.Color
}

func NewHumanWriter(out io.Writer, mode model.OutputMode, noSnippet bool, useColor bool) *HumanWriter {
	c := color.New(color.FgMagenta)
	c.EnableColor()
	if !useColor {
		c.DisableColor()
	}
	return &HumanWriter{
		out:       bufio.NewWriter(out),
		mode:      mode,
		noSnippet: noSnippet,
		color:     useColor,
		pathColor: c,
	}
}

// DetectColor reports whether fd refers to a terminal, the same check
// the CLI uses to decide HumanWriter's useColor argument.
func DetectColor(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

func (w *HumanWriter) path(p string) string {
	if !w.color {
		return p
	}
	return w.pathColor.Sprint(p)
}

func (w *HumanWriter) WriteMatch(m model.MatchRecord) {
	if w.noSnippet {
		fmt.Fprintf(w.out, "%s:%d\n", w.path(m.Path), m.Offset)
		return
	}
	fmt.Fprintf(w.out, "%s:%d:%s\n", w.path(m.Path), m.Offset, m.Snippet)
}

func (w *HumanWriter) WriteFileSummary(s model.FileMatchSummary) {
	switch w.mode {
	case model.OutputCount:
		fmt.Fprintf(w.out, "%s:%d\n", w.path(s.Path), s.Count)
	default: // FilesWithMatches
		fmt.Fprintf(w.out, "%s\n", w.path(s.Path))
	}
}

// Flush flushes buffered output; callers must call it before process
// exit or before reading the underlying writer's contents in tests.
func (w *HumanWriter) Flush() error { return w.out.Flush() }

// JSONLWriter renders spec.md §6's JSONL form: one flat object per
// line, hand-encoded via internal/textutil.JSONEscape rather than
// encoding/json, since records are simple enough that a full encoder
// would only add indirection, and spec.md's escaping contract (no
// Unicode escapes, ".." for control bytes) is narrower than
// encoding/json's.
type JSONLWriter struct {
	out     *bufio.Writer
	mode    model.OutputMode
	pattern string
	noSnippet bool
}

func NewJSONLWriter(out io.Writer, mode model.OutputMode, pattern string, noSnippet bool) *JSONLWriter {
	return &JSONLWriter{out: bufio.NewWriter(out), mode: mode, pattern: pattern, noSnippet: noSnippet}
}

func (w *JSONLWriter) WriteMatch(m model.MatchRecord) {
	fmt.Fprintf(w.out, `{"path":"%s","mode":"match","pattern":"%s","offset":%d,"binary":%t`,
		textutil.JSONEscape(m.Path), textutil.JSONEscape(w.pattern), m.Offset, m.Binary)
	if !w.noSnippet {
		fmt.Fprintf(w.out, `,"snippet":"%s"`, textutil.JSONEscape(m.Snippet))
	}
	w.out.WriteString("}\n")
}

func (w *JSONLWriter) WriteFileSummary(s model.FileMatchSummary) {
	switch w.mode {
	case model.OutputCount:
		fmt.Fprintf(w.out, `{"path":"%s","mode":"count","pattern":"%s","binary":%t,"count":%d}`+"\n",
			textutil.JSONEscape(s.Path), textutil.JSONEscape(w.pattern), s.Binary, s.Count)
	default:
		fmt.Fprintf(w.out, `{"path":"%s","mode":"files_with_matches","pattern":"%s","binary":%t}`+"\n",
			textutil.JSONEscape(s.Path), textutil.JSONEscape(w.pattern), s.Binary)
	}
}

func (w *JSONLWriter) Flush() error { return w.out.Flush() }

// NewWriter builds the writer selected by req.JSONOutput, matching
// original_source's make_output_writer factory.
func NewWriter(req *model.SearchRequest, out io.Writer, useColor bool) interface {
	Writer
	Flush() error
} {
	if req.JSONOutput {
		return NewJSONLWriter(out, req.OutputMode, string(req.Pattern), req.NoSnippet)
	}
	return NewHumanWriter(out, req.OutputMode, req.NoSnippet, useColor)
}

// StderrErrorWriter is the default ErrorWriter used by the CLI.
func StderrErrorWriter() *StreamErrorWriter {
	return NewStreamErrorWriter(os.Stderr)
}
