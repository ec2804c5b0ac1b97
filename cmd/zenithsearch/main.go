// Command zenithsearch is a parallel literal-pattern file search tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/zenithsearch/internal/engine"
	"github.com/standardbeagle/zenithsearch/internal/model"
	"github.com/standardbeagle/zenithsearch/internal/output"
)

var version = "dev" // overridden by -ldflags "-X main.version=..."

func versionInfo() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	var revision string
	var modified bool
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			modified = kv.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	v := "dev-" + revision[:min(12, len(revision))]
	if modified {
		v += "-dirty"
	}
	return v
}

// VersionFlag implements kong's BeforeApply hook to print version and exit.
type VersionFlag bool

func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface via kong struct tags.
type CLI struct {
	Version VersionFlag `help:"Print version and exit." short:"v"`

	Pattern string   `arg:"" help:"Literal byte pattern to search for."`
	Paths   []string `arg:"" optional:"" help:"Files or directories to search (default: current directory)."`

	Ext          []string `help:"Only search files with this extension (repeatable, e.g. --ext=.go)."`
	IgnoreHidden bool     `help:"Skip hidden files and directories."`
	NoIgnore     bool     `help:"Do not honor .zenithignore files."`
	RespectGitignore bool `help:"Also honor .gitignore files." name:"respect-gitignore"`
	FollowSymlinks bool   `help:"Follow symlinked directories during the walk."`

	MaxBytes string `help:"Skip files larger than this size (e.g. 10MB). Unlimited by default."`
	Binary   string `help:"Binary file handling." enum:"skip,scan" default:"skip"`

	Mmap          string `help:"Memory-mapping strategy." enum:"auto,on,off" default:"auto"`
	MmapThreshold string `help:"File size at or above which mmap mode=auto maps instead of streams." default:"64KB"`
	ChunkSize     string `help:"Streaming read chunk size." default:"1MB"`

	Count            bool `help:"Print a per-file match count instead of each match." xor:"outmode"`
	FilesWithMatches bool `help:"Print only the paths of files with a match." xor:"outmode" name:"files-with-matches"`
	JSON             bool `help:"Emit JSON Lines instead of human-readable output."`
	Unstable         bool `help:"Emit results as workers finish instead of in sorted path order."`

	Algorithm string `help:"Literal matching algorithm." enum:"auto,naive,bmh,boyer-moore" default:"auto"`

	Exclude    []string `help:"Exclude files matching this glob (repeatable)."`
	ExcludeDir []string `help:"Exclude directories with this basename (repeatable)." name:"exclude-dir"`
	Include    []string `help:"Only include files matching this glob (repeatable)."`

	MaxMatchesPerFile int  `help:"Cap stored match records per file (the reported count is unaffected). 0 means uncapped." name:"max-matches-per-file"`
	MaxSnippetBytes   int  `help:"Maximum snippet length around a match." default:"120" name:"max-snippet-bytes"`
	NoSnippet         bool `help:"Omit snippets from match output." name:"no-snippet"`

	Threads int `help:"Worker count. 0 selects hardware concurrency." default:"0"`

	AllowDir []string `help:"Restrict input paths to these directories (repeatable)." name:"allow-dir"`
	DenyGlob []string `help:"Reject input paths matching this glob (repeatable)." name:"deny-glob"`

	Stats bool `help:"Print a scan summary to stderr when finished."`
}

// Validate rejects malformed glob syntax in --exclude, --include and
// --deny-glob values.
func (c *CLI) Validate() error {
	for _, g := range c.Exclude {
		if err := doublestar.ValidatePattern(g); err != nil {
			return fmt.Errorf("--exclude %q: %w", g, err)
		}
	}
	for _, g := range c.Include {
		if err := doublestar.ValidatePattern(g); err != nil {
			return fmt.Errorf("--include %q: %w", g, err)
		}
	}
	for _, g := range c.DenyGlob {
		if err := doublestar.ValidatePattern(g); err != nil {
			return fmt.Errorf("--deny-glob %q: %w", g, err)
		}
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var cli CLI
	// kong.Parse exits the process directly (via app.Exit, which
	// VersionFlag.BeforeApply and kong's own usage-error handling both
	// call) so nothing after this line runs on a parse failure or
	// --version/--help.
	kong.Parse(&cli,
		kong.Name("zenithsearch"),
		kong.Description("Parallel literal-pattern file search."),
		kong.Vars{"version": versionInfo()},
	)

	req, err := buildRequest(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	useColor := !cli.JSON && output.DetectColor(os.Stdout.Fd())
	w := output.NewWriter(req, os.Stdout, useColor)
	ew := output.StderrErrorWriter()

	stats := engine.New(w, ew).Run(ctx, req)
	if err := w.Flush(); err != nil {
		log.Printf("flush error: %v", err)
	}

	if cli.Stats {
		fmt.Fprintf(os.Stderr, "scanned %d files in %s (cancelled=%t)\n",
			stats.FilesScanned, stats.Elapsed, stats.Cancelled)
	}

	switch {
	case stats.Cancelled:
		return 130
	case stats.AnyMatch:
		return 0
	default:
		return 1
	}
}

// buildRequest turns parsed flags into a model.SearchRequest, resolving
// and scope-guarding input paths along the way.
func buildRequest(cli *CLI) (*model.SearchRequest, error) {
	paths := cli.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working directory: %w", err)
	}
	resolved, err := resolveInputPaths(cwd, paths, cli.AllowDir, cli.DenyGlob)
	if err != nil {
		return nil, err
	}

	maxBytes, err := parseOptionalSize(cli.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("--max-bytes: %w", err)
	}
	mmapThreshold, err := parseSize(cli.MmapThreshold)
	if err != nil {
		return nil, fmt.Errorf("--mmap-threshold: %w", err)
	}
	chunkSize, err := parseSize(cli.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("--chunk-size: %w", err)
	}

	extensions := map[string]struct{}{}
	for _, e := range cli.Ext {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extensions[e] = struct{}{}
	}

	outputMode := model.OutputMatches
	switch {
	case cli.Count:
		outputMode = model.OutputCount
	case cli.FilesWithMatches:
		outputMode = model.OutputFilesWithMatches
	}

	var maxMatchesPerFile *int
	if cli.MaxMatchesPerFile > 0 {
		v := cli.MaxMatchesPerFile
		maxMatchesPerFile = &v
	}

	return &model.SearchRequest{
		Pattern:           []byte(cli.Pattern),
		InputPaths:        resolved,
		Extensions:        extensions,
		IgnoreHidden:      cli.IgnoreHidden,
		NoIgnore:          cli.NoIgnore,
		RespectGitignore:  cli.RespectGitignore,
		FollowSymlinks:    cli.FollowSymlinks,
		MaxBytes:          maxBytes,
		BinaryMode:        binaryModeFromString(cli.Binary),
		MmapMode:          mmapModeFromString(cli.Mmap),
		MmapThreshold:     mmapThreshold,
		ChunkSize:         int(chunkSize),
		OutputMode:        outputMode,
		StableOutput:      !cli.Unstable,
		AlgorithmMode:     algorithmModeFromString(cli.Algorithm),
		ExcludeGlobs:      cli.Exclude,
		ExcludeDirs:       cli.ExcludeDir,
		IncludeGlobs:      cli.Include,
		MaxMatchesPerFile: maxMatchesPerFile,
		MaxSnippetBytes:   cli.MaxSnippetBytes,
		NoSnippet:         cli.NoSnippet,
		Threads:           cli.Threads,
		JSONOutput:        cli.JSON,
	}, nil
}

func binaryModeFromString(s string) model.BinaryMode {
	if s == "scan" {
		return model.BinaryScan
	}
	return model.BinarySkip
}

func mmapModeFromString(s string) model.MmapMode {
	switch s {
	case "on":
		return model.MmapOn
	case "off":
		return model.MmapOff
	default:
		return model.MmapAuto
	}
}

func algorithmModeFromString(s string) model.AlgorithmMode {
	switch s {
	case "naive":
		return model.AlgorithmNaive
	case "bmh":
		return model.AlgorithmBmh
	case "boyer-moore":
		return model.AlgorithmBoyerMoore
	default:
		return model.AlgorithmAuto
	}
}

// resolveInputPaths canonicalizes each input path (absolute, symlinks
// resolved) relative to cwd, then, when allowDirs or denyGlobs were
// given on the command line, rejects any path that falls outside every
// allowed directory or matches a deny glob — either on the path itself
// or on one of its ancestor directories, so "--deny-glob **/.git" also
// denies a file underneath a matched .git directory.
func resolveInputPaths(cwd string, paths []string, allowDirs []string, denyGlobs []string) ([]string, error) {
	allowed := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("--allow-dir %q: %w", d, err)
		}
		canon, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("--allow-dir %q: %w", d, err)
		}
		allowed = append(allowed, canon)
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		canon, err := canonicalizePath(p)
		if err != nil {
			return nil, err
		}
		canon, err = filepath.Abs(canon)
		if err != nil {
			return nil, err
		}

		if len(allowed) > 0 && !underAnyDir(canon, allowed) {
			return nil, fmt.Errorf("path %q is outside the allowed directories", canon)
		}
		if pattern, denied := matchesDenyGlob(canon, denyGlobs); denied {
			return nil, fmt.Errorf("path %q matches deny glob %q", canon, pattern)
		}

		resolved = append(resolved, canon)
	}
	return resolved, nil
}

func underAnyDir(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func matchesDenyGlob(path string, patterns []string) (string, bool) {
	for _, pattern := range patterns {
		if matched, _ := doublestar.PathMatch(pattern, path); matched {
			return pattern, true
		}
		for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
			if matched, _ := doublestar.PathMatch(pattern, dir); matched {
				return pattern, true
			}
		}
	}
	return "", false
}

// canonicalizePath resolves symlinks for a path that may not exist yet
// (e.g. a typo'd search root), by walking up to the nearest existing
// ancestor, resolving that, then rejoining the remaining components.
func canonicalizePath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := canonicalizePath(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// parseSize parses a human-readable size string (e.g. "10MB", "512", "1GB").
func parseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		upper = strings.TrimSuffix(upper, "B")
	}
	upper = strings.TrimSpace(upper)
	val, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as size", s)
	}
	return val * multiplier, nil
}

// parseOptionalSize treats an empty string as "no limit".
func parseOptionalSize(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseSize(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
