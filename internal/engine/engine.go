// Package engine implements the search engine (spec.md C8): it
// enumerates files, sorts them, dispatches a parallel worker pool over
// a shared job queue, chooses a matcher per file, scans via mmap or
// streaming, and emits results either as workers finish (unstable mode)
// or in path-sorted order once every worker has joined (stable mode).
package engine

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/zenithsearch/internal/enumerate"
	"github.com/standardbeagle/zenithsearch/internal/fileio"
	"github.com/standardbeagle/zenithsearch/internal/matcher"
	"github.com/standardbeagle/zenithsearch/internal/mmapfile"
	"github.com/standardbeagle/zenithsearch/internal/model"
	"github.com/standardbeagle/zenithsearch/internal/output"
	"github.com/standardbeagle/zenithsearch/internal/textutil"
)

// Engine runs searches against an output sink and an error sink.
type Engine struct {
	Writer      output.Writer
	ErrorWriter output.ErrorWriter
}

// New builds an Engine writing matches to w and errors to ew.
func New(w output.Writer, ew output.ErrorWriter) *Engine {
	return &Engine{Writer: w, ErrorWriter: ew}
}

// Run executes req to completion (or until ctx is cancelled) and
// returns the resulting SearchStats. ctx is the single shared
// cancellation point the enumerator, the chunk reader, and every worker
// observe (spec.md §5).
func (e *Engine) Run(ctx context.Context, req *model.SearchRequest) model.SearchStats {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	start := time.Now()

	files := enumerate.Enumerate(ctx, req, func(path string, err error) {
		e.ErrorWriter.WriteError(path, err)
	})
	sort.Slice(files, func(i, j int) bool {
		return files[i].NormalizedPath < files[j].NormalizedPath
	})

	n := len(files)
	var results []model.FileResult
	if req.StableOutput {
		results = make([]model.FileResult, n)
	}

	var queueMu sync.Mutex
	next := 0
	popJob := func() (int, bool) {
		queueMu.Lock()
		defer queueMu.Unlock()
		if next >= n {
			return 0, false
		}
		idx := next
		next++
		return idx, true
	}

	workersN := effectiveThreads(req.Threads)
	if n == 0 {
		workersN = 1
	} else if workersN > n {
		workersN = n
	}

	var anyMatch atomic.Bool
	var cancelled atomic.Bool
	var filesScanned atomic.Int64
	var completedFiles atomic.Int64
	cancelAfter := testHookCancelAfterFiles()

	var emitMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			for {
				idx, ok := popJob()
				if !ok {
					return nil
				}

				fr := e.scanFile(gctx, req, files[idx])
				filesScanned.Add(1)
				if fr.AnyMatch {
					anyMatch.Store(true)
					sort.Slice(fr.Matches, func(i, j int) bool {
						return fr.Matches[i].Offset < fr.Matches[j].Offset
					})
				}
				if !fr.Completed {
					cancelled.Store(true)
				}

				if cancelAfter > 0 {
					done := completedFiles.Add(1)
					if done >= int64(cancelAfter) {
						cancelled.Store(true)
						cancel()
					}
				}

				if req.StableOutput {
					results[idx] = fr
				} else {
					emitMu.Lock()
					e.emit(req, fr)
					emitMu.Unlock()
				}
			}
		})
	}
	_ = g.Wait()

	if req.StableOutput {
		wasCancelled := cancelled.Load()
		for _, fr := range results {
			if wasCancelled && !fr.Completed {
				continue
			}
			e.emit(req, fr)
		}
	}

	return model.SearchStats{
		AnyMatch:     anyMatch.Load(),
		Cancelled:    cancelled.Load() || ctx.Err() != nil,
		FilesScanned: int(filesScanned.Load()),
		Elapsed:      time.Since(start),
	}
}

func (e *Engine) emit(req *model.SearchRequest, fr model.FileResult) {
	if !fr.AnyMatch {
		return
	}
	switch req.OutputMode {
	case model.OutputMatches:
		for _, m := range fr.Matches {
			e.Writer.WriteMatch(m)
		}
	case model.OutputCount:
		e.Writer.WriteFileSummary(model.FileMatchSummary{Path: fr.Path, Count: fr.Count, Binary: fr.Binary})
	default: // FilesWithMatches
		e.Writer.WriteFileSummary(model.FileMatchSummary{Path: fr.Path, Count: 1, Binary: fr.Binary})
	}
}

// scanFile scans a single file per spec.md §4.7: choose an algorithm,
// decide mmap vs. streaming, detect binary content, and accumulate
// matches subject to the per-file cap and cancellation.
func (e *Engine) scanFile(ctx context.Context, req *model.SearchRequest, file model.FileItem) model.FileResult {
	fr := model.FileResult{Path: file.Path, Completed: true}

	if ctxDone(ctx) {
		fr.Completed = false
		return fr
	}

	alg := matcher.Select(algorithmModeString(req.AlgorithmMode), len(req.Pattern), file.Size)
	useMmap := req.MmapMode == model.MmapOn ||
		(req.MmapMode == model.MmapAuto && file.Size >= req.MmapThreshold)

	addMatch := func(offset int64, snippet func() string) {
		fr.AnyMatch = true
		fr.Count++
		if req.OutputMode == model.OutputCount {
			return
		}
		if req.MaxMatchesPerFile != nil && len(fr.Matches) >= *req.MaxMatchesPerFile {
			return
		}
		s := ""
		if !req.NoSnippet {
			s = snippet()
		}
		fr.Matches = append(fr.Matches, model.MatchRecord{
			Path:    file.Path,
			Offset:  offset,
			Snippet: s,
			Binary:  fr.Binary,
		})
	}

	if useMmap {
		mf, err := mmapfile.Open(file.Path)
		if err == nil {
			defer mf.Close()
			data := mf.Bytes()
			probeLen := min(len(data), model.BinaryProbeBytes)
			fr.Binary = containsNUL(data[:probeLen])
			if fr.Binary && req.BinaryMode == model.BinarySkip {
				return fr
			}

			positions := alg.FindAll(data, req.Pattern)
			for _, pos := range positions {
				if ctxDone(ctx) {
					fr.Completed = false
					return fr
				}
				p := pos
				addMatch(int64(p), func() string {
					return buildSnippet(data, p, len(req.Pattern), req.MaxSnippetBytes)
				})
			}
			return fr
		}
		if req.MmapMode == model.MmapOn {
			e.ErrorWriter.WriteError(file.Path, fmt.Errorf("mmap failed, fallback to stream: %w", err))
		}
		// Auto mode: fall through to streaming silently.
	}

	if req.BinaryMode == model.BinarySkip {
		prefix, err := fileio.ReadPrefix(file.Path, model.BinaryProbeBytes)
		if err != nil {
			e.ErrorWriter.WriteError(file.Path, err)
			return fr
		}
		fr.Binary = containsNUL(prefix)
		if fr.Binary {
			return fr
		}
	}

	var carry []byte
	var processed int64
	interrupted := false

	readErr := fileio.ReadChunks(ctx, file.Path, req.ChunkSize, func(chunk []byte) error {
		if ctxDone(ctx) {
			interrupted = true
			return nil
		}

		combined := make([]byte, 0, len(carry)+len(chunk))
		combined = append(combined, carry...)
		combined = append(combined, chunk...)
		carrySize := len(carry)

		positions := alg.FindAll(combined, req.Pattern)
		for _, pos := range positions {
			if pos+len(req.Pattern) <= carrySize {
				continue
			}
			if ctxDone(ctx) {
				interrupted = true
				return nil
			}
			p := pos
			globalOffset := processed - int64(carrySize) + int64(p)
			addMatch(globalOffset, func() string {
				return buildSnippet(combined, p, len(req.Pattern), req.MaxSnippetBytes)
			})
		}

		processed += int64(len(chunk))
		if len(req.Pattern) > 1 {
			overlap := len(req.Pattern) - 1
			if len(combined) > overlap {
				carry = append([]byte(nil), combined[len(combined)-overlap:]...)
			} else {
				carry = append([]byte(nil), combined...)
			}
		} else {
			carry = nil
		}
		return nil
	})

	// ReadChunks checks ctx.Done() in its own loop before each read, so
	// cancellation between two chunks never reaches onChunk at all —
	// interrupted alone would miss that case. Check ctx again here,
	// independent of what onChunk observed.
	if interrupted || ctxDone(ctx) {
		fr.Completed = false
	}
	if readErr != nil {
		e.ErrorWriter.WriteError(file.Path, readErr)
	}
	return fr
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func containsNUL(b []byte) bool {
	return bytes.IndexByte(b, 0) >= 0
}

// buildSnippet centers a snippet of at most snippetCap bytes on the
// match at pos within buf (spec.md §4.7). Note the snippet's window is
// whatever buffer the caller scanned (the full mmap span, or the
// streaming path's narrower carry+chunk window) — spec.md's Open
// Question (a) preserves that as observed behavior rather than
// widening the window.
func buildSnippet(buf []byte, pos, patLen, snippetCap int) string {
	half := snippetCap / 2
	start := pos - half
	if start < 0 {
		start = 0
	}
	end := pos + patLen + half
	if end > len(buf) {
		end = len(buf)
	}
	return textutil.SanitizeSnippet(buf[start:end])
}

func algorithmModeString(mode model.AlgorithmMode) string {
	switch mode {
	case model.AlgorithmNaive:
		return "naive"
	case model.AlgorithmBmh:
		return "bmh"
	case model.AlgorithmBoyerMoore:
		return "boyer-moore"
	default:
		return ""
	}
}

// effectiveThreads clamps a configured thread count to [1,32], or falls
// back to hardware concurrency (floor 4 if unavailable) in the same
// range when configured is 0.
func effectiveThreads(configured int) int {
	if configured != 0 {
		return clamp(configured, model.MinThreads, model.MaxThreads)
	}
	base := runtime.NumCPU()
	if base < 1 {
		base = 4
	}
	return clamp(base, model.MinThreads, model.MaxThreads)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
