package output

import (
	"bytes"
	"testing"

	"github.com/standardbeagle/zenithsearch/internal/model"
)

func TestHumanWriterMatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewHumanWriter(&buf, model.OutputMatches, false, false)
	w.WriteMatch(model.MatchRecord{Path: "/t/a.txt", Offset: 6, Snippet: "hello pat world pat"})
	w.Flush()
	want := "/t/a.txt:6:hello pat world pat\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestHumanWriterMatchNoSnippet(t *testing.T) {
	var buf bytes.Buffer
	w := NewHumanWriter(&buf, model.OutputMatches, true, false)
	w.WriteMatch(model.MatchRecord{Path: "/t/a.txt", Offset: 6})
	w.Flush()
	want := "/t/a.txt:6\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestHumanWriterCountSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewHumanWriter(&buf, model.OutputCount, false, false)
	w.WriteFileSummary(model.FileMatchSummary{Path: "/t/a.txt", Count: 3})
	w.Flush()
	if buf.String() != "/t/a.txt:3\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestHumanWriterFilesWithMatchesSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewHumanWriter(&buf, model.OutputFilesWithMatches, false, false)
	w.WriteFileSummary(model.FileMatchSummary{Path: "/t/a.txt"})
	w.Flush()
	if buf.String() != "/t/a.txt\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestJSONLWriterMatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, model.OutputMatches, "pat", false)
	w.WriteMatch(model.MatchRecord{Path: "/t/a.txt", Offset: 6, Snippet: "hi", Binary: false})
	w.Flush()
	want := `{"path":"/t/a.txt","mode":"match","pattern":"pat","offset":6,"binary":false,"snippet":"hi"}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestJSONLWriterCountSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, model.OutputCount, "pat", false)
	w.WriteFileSummary(model.FileMatchSummary{Path: "/t/a.txt", Count: 2})
	w.Flush()
	want := `{"path":"/t/a.txt","mode":"count","pattern":"pat","binary":false,"count":2}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestStreamErrorWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamErrorWriter(&buf)
	w.WriteError("/t/a.txt", errTest{"boom"})
	if buf.String() != "/t/a.txt: boom\n" {
		t.Errorf("got %q", buf.String())
	}
}

type errTest struct{ s string }

func (e errTest) Error() string { return e.s }
