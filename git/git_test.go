package git

import (
	"context"
	"fmt"
	"testing"

	cexec "github.com/zhubert/clip-core/exec"
)

// ctx is a background context for testing
var ctx = context.Background()

func TestIsGitRepo(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"rev-parse", "--is-inside-work-tree"}, cexec.Response{})
	s := NewGitServiceWithRunner(mock)

	if !s.IsGitRepo(ctx, "/repo") {
		t.Error("IsGitRepo should return true when rev-parse succeeds")
	}
}

func TestIsGitRepo_NotARepo(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"rev-parse", "--is-inside-work-tree"}, cexec.Response{
		Err: fmt.Errorf("fatal: not a git repository"),
	})
	s := NewGitServiceWithRunner(mock)

	if s.IsGitRepo(ctx, "/not-a-repo") {
		t.Error("IsGitRepo should return false when rev-parse fails")
	}
}

func TestListTrackedFiles(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"ls-files", "--", "src"}, cexec.Response{
		Stdout: []byte("src/a.go\nsrc/b.go\n\n"),
	})
	s := NewGitServiceWithRunner(mock)

	files, err := s.ListTrackedFiles(ctx, "/repo", "src")
	if err != nil {
		t.Fatalf("ListTrackedFiles: %v", err)
	}
	if len(files) != 2 || files[0] != "src/a.go" || files[1] != "src/b.go" {
		t.Errorf("ListTrackedFiles = %v", files)
	}
}

func TestListTrackedFiles_NoMatch(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"ls-files", "--", "nothing"}, cexec.Response{
		Stdout: []byte(""),
	})
	s := NewGitServiceWithRunner(mock)

	files, err := s.ListTrackedFiles(ctx, "/repo", "nothing")
	if err != nil {
		t.Fatalf("ListTrackedFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("ListTrackedFiles = %v, want empty", files)
	}
}

func TestFollowRenames(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git",
		[]string{"log", "--follow", "--name-status", "--diff-filter=R", "--pretty=format:", "--", "b.txt"},
		cexec.Response{Stdout: []byte("\nR100\told_b.txt\tb.txt\n\nR072\tancient_b.txt\told_b.txt\n")},
	)
	s := NewGitServiceWithRunner(mock)

	events, err := s.FollowRenames(ctx, "/repo", "b.txt")
	if err != nil {
		t.Fatalf("FollowRenames: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("FollowRenames returned %d events, want 2", len(events))
	}
	if events[0].OldPath != "old_b.txt" || events[0].NewPath != "b.txt" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].OldPath != "ancient_b.txt" || events[1].NewPath != "old_b.txt" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestFollowRenames_IgnoresNonRenameLines(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddPrefixMatch("git", []string{"log", "--follow"}, cexec.Response{
		Stdout: []byte("M\ta.txt\nA\tb.txt\nR090\told.txt\tnew.txt\nbogus line\n"),
	})
	s := NewGitServiceWithRunner(mock)

	events, err := s.FollowRenames(ctx, "/repo", "new.txt")
	if err != nil {
		t.Fatalf("FollowRenames: %v", err)
	}
	if len(events) != 1 || events[0].OldPath != "old.txt" {
		t.Errorf("FollowRenames = %+v, want only the R090 line", events)
	}
}

func TestRevisionCount(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"rev-list", "--count", "main"}, cexec.Response{
		Stdout: []byte("42\n"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.RevisionCount(ctx, "/repo", "main"); got != 42 {
		t.Errorf("RevisionCount = %d, want 42", got)
	}
}

func TestRevisionCount_FailureYieldsZero(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"rev-list", "--count", "ghost"}, cexec.Response{
		Err: fmt.Errorf("fatal: bad revision 'ghost'"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.RevisionCount(ctx, "/repo", "ghost"); got != 0 {
		t.Errorf("RevisionCount = %d, want 0 on failure", got)
	}
}

func TestRevisionCountPaths_FailureYieldsUnknown(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddPrefixMatch("git", []string{"rev-list", "--all", "--count"}, cexec.Response{
		Err: fmt.Errorf("boom"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.RevisionCountPaths(ctx, "/repo", []string{"a.txt"}); got != "unknown" {
		t.Errorf("RevisionCountPaths = %q, want \"unknown\"", got)
	}
}

func TestListTree_WithSizes(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"ls-tree", "-r", "--long", "main"}, cexec.Response{
		Stdout: []byte(
			"100644 blob a1b2c3     1234\tsrc/main.go\n" +
				"100644 blob d4e5f6      567\tREADME.md\n" +
				"040000 tree 778899        -\tsrc\n" +
				"160000 commit aabbcc       -\tvendor/dep\n"),
	})
	s := NewGitServiceWithRunner(mock)

	entries, err := s.ListTree(ctx, "/repo", "main", true, true)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("ListTree returned %d entries, want 4", len(entries))
	}
	if entries[0].Path != "src/main.go" || entries[0].Size != 1234 || !entries[0].IsBlob() {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[2].Type != "tree" || entries[2].Size != -1 {
		t.Errorf("tree entry = %+v", entries[2])
	}
	if entries[3].Type != "commit" || entries[3].IsBlob() {
		t.Errorf("submodule entry = %+v", entries[3])
	}
}

func TestListTree_MalformedSizeParsesToZero(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"ls-tree", "-r", "--long", "main"}, cexec.Response{
		Stdout: []byte("100644 blob a1b2c3     garbage\tweird.bin\n"),
	})
	s := NewGitServiceWithRunner(mock)

	entries, err := s.ListTree(ctx, "/repo", "main", true, true)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(entries) != 1 || entries[0].Size != 0 {
		t.Errorf("entries = %+v, want single entry with size 0", entries)
	}
}

func TestListTree_TopLevelNoSizes(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"ls-tree", "main"}, cexec.Response{
		Stdout: []byte("100644 blob a1b2c3\tREADME.md\n040000 tree d4e5f6\tsrc\n"),
	})
	s := NewGitServiceWithRunner(mock)

	entries, err := s.ListTree(ctx, "/repo", "main", false, false)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(entries) != 2 || entries[0].Size != -1 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDiffShortstat(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--shortstat", "base..feature"}, cexec.Response{
		Stdout: []byte(" 3 files changed, 10 insertions(+), 2 deletions(-)\n"),
	})
	s := NewGitServiceWithRunner(mock)

	files, ins, del := s.DiffShortstat(ctx, "/repo", "base..feature")
	if files != 3 || ins != 10 || del != 2 {
		t.Errorf("DiffShortstat = (%d, %d, %d), want (3, 10, 2)", files, ins, del)
	}
}

func TestDiffShortstat_SingularForms(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--shortstat", "a..b"}, cexec.Response{
		Stdout: []byte(" 1 file changed, 1 insertion(+), 1 deletion(-)\n"),
	})
	s := NewGitServiceWithRunner(mock)

	files, ins, del := s.DiffShortstat(ctx, "/repo", "a..b")
	if files != 1 || ins != 1 || del != 1 {
		t.Errorf("DiffShortstat = (%d, %d, %d), want (1, 1, 1)", files, ins, del)
	}
}

func TestDiffShortstat_FailureYieldsZeros(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--shortstat", "a..b"}, cexec.Response{
		Err: fmt.Errorf("fatal: bad revision"),
	})
	s := NewGitServiceWithRunner(mock)

	files, ins, del := s.DiffShortstat(ctx, "/repo", "a..b")
	if files != 0 || ins != 0 || del != 0 {
		t.Errorf("DiffShortstat = (%d, %d, %d), want zeros on failure", files, ins, del)
	}
}

func TestDiffNameStatus(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--name-status", "--find-renames=50%", "base..feature"}, cexec.Response{
		Stdout: []byte("M\tmain.go\nA\tnew.go\nD\tgone.go\nR085\told/name.go\tnew/name.go\n"),
	})
	s := NewGitServiceWithRunner(mock)

	records, err := s.DiffNameStatus(ctx, "/repo", "base..feature", "50%")
	if err != nil {
		t.Fatalf("DiffNameStatus: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("DiffNameStatus returned %d records, want 4", len(records))
	}
	if records[0].Status != "M" || records[0].Path != "main.go" {
		t.Errorf("first record = %+v", records[0])
	}
	rename := records[3]
	if !rename.IsRename() || rename.From != "old/name.go" || rename.To != "new/name.go" || rename.Path != "" {
		t.Errorf("rename record = %+v", rename)
	}
}

func TestMergeBase(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"merge-base", "main", "feature"}, cexec.Response{
		Stdout: []byte("abc123def456\n"),
	})
	s := NewGitServiceWithRunner(mock)

	base, ok := s.MergeBase(ctx, "/repo", "main", "feature")
	if !ok || base != "abc123def456" {
		t.Errorf("MergeBase = (%q, %v), want (abc123def456, true)", base, ok)
	}
}

func TestMergeBase_UnrelatedHistories(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"merge-base", "main", "clip/import"}, cexec.Response{
		Err: fmt.Errorf("exit status 1"),
	})
	s := NewGitServiceWithRunner(mock)

	base, ok := s.MergeBase(ctx, "/repo", "main", "clip/import")
	if ok || base != "" {
		t.Errorf("MergeBase = (%q, %v), want (\"\", false) for unrelated histories", base, ok)
	}
}

func TestMerge_BuildsArgs(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	s := NewGitServiceWithRunner(mock)

	if err := s.Merge(ctx, "/repo", "clip/import", MergeOptions{
		NoFF:                    true,
		AllowUnrelatedHistories: true,
		Message:                 "Import clip",
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("recorded %d calls, want 1", len(calls))
	}
	want := []string{"merge", "--no-ff", "--allow-unrelated-histories", "-m", "Import clip", "clip/import"}
	got := calls[0].Args
	if len(got) != len(want) {
		t.Fatalf("merge args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merge args = %v, want %v", got, want)
		}
	}
}

func TestMerge_DefaultUsesNoEdit(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	s := NewGitServiceWithRunner(mock)

	if err := s.Merge(ctx, "/repo", "feature", MergeOptions{}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	args := mock.Calls()[0].Args
	found := false
	for _, a := range args {
		if a == "--no-edit" {
			found = true
		}
	}
	if !found {
		t.Errorf("merge args = %v, want --no-edit when no message given", args)
	}
}

func TestBundleHeads(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"bundle", "list-heads", "/clips/x.bundle"}, cexec.Response{
		Stdout: []byte("abc123 refs/heads/main\ndef456 refs/heads/dev\n"),
	})
	s := NewGitServiceWithRunner(mock)

	heads, err := s.BundleHeads(ctx, "/clips/x.bundle")
	if err != nil {
		t.Fatalf("BundleHeads: %v", err)
	}
	if len(heads) != 2 {
		t.Fatalf("BundleHeads returned %d heads, want 2", len(heads))
	}
	if heads[0].SHA != "abc123" || heads[0].Ref != "refs/heads/main" {
		t.Errorf("first head = %+v", heads[0])
	}
}

func TestDefaultBranch_FromSymbolicRef(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "-q", "--short", "HEAD"}, cexec.Response{
		Stdout: []byte("main\n"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.DefaultBranch(ctx, "/repo"); got != "main" {
		t.Errorf("DefaultBranch = %q, want main", got)
	}
}

func TestDefaultBranch_FallbackToAbbrevRef(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "-q", "--short", "HEAD"}, cexec.Response{
		Err: fmt.Errorf("exit status 1"),
	})
	mock.AddExactMatch("git", []string{"rev-parse", "--abbrev-ref", "HEAD"}, cexec.Response{
		Stdout: []byte("trunk\n"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.DefaultBranch(ctx, "/repo"); got != "trunk" {
		t.Errorf("DefaultBranch = %q, want trunk", got)
	}
}

func TestDefaultBranch_DetachedHeadYieldsEmpty(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"symbolic-ref", "-q", "--short", "HEAD"}, cexec.Response{
		Err: fmt.Errorf("exit status 1"),
	})
	mock.AddExactMatch("git", []string{"rev-parse", "--abbrev-ref", "HEAD"}, cexec.Response{
		Stdout: []byte("HEAD\n"),
	})
	s := NewGitServiceWithRunner(mock)

	if got := s.DefaultBranch(ctx, "/repo"); got != "" {
		t.Errorf("DefaultBranch = %q, want empty on detached HEAD", got)
	}
}

func TestListRemotes(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"remote"}, cexec.Response{
		Stdout: []byte("origin\nupstream\n"),
	})
	mock.AddExactMatch("git", []string{"remote", "get-url", "origin"}, cexec.Response{
		Stdout: []byte("https://github.com/test/test.git\n"),
	})
	mock.AddExactMatch("git", []string{"remote", "get-url", "upstream"}, cexec.Response{
		Err: fmt.Errorf("boom"),
	})
	s := NewGitServiceWithRunner(mock)

	remotes := s.ListRemotes(ctx, "/repo")
	if remotes["origin"] != "https://github.com/test/test.git" {
		t.Errorf("origin URL = %q", remotes["origin"])
	}
	if url, ok := remotes["upstream"]; !ok || url != "" {
		t.Errorf("upstream should be present with empty URL, got (%q, %v)", url, ok)
	}
}

func TestConflictedFiles(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--name-only", "--diff-filter=U"}, cexec.Response{
		Stdout: []byte("a.go\nb.go\n"),
	})
	s := NewGitServiceWithRunner(mock)

	files, err := s.ConflictedFiles(ctx, "/repo")
	if err != nil {
		t.Fatalf("ConflictedFiles: %v", err)
	}
	if len(files) != 2 || files[0] != "a.go" {
		t.Errorf("ConflictedFiles = %v", files)
	}
}

func TestConflictedFiles_NoneYieldsNil(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"diff", "--name-only", "--diff-filter=U"}, cexec.Response{
		Stdout: []byte("\n"),
	})
	s := NewGitServiceWithRunner(mock)

	files, err := s.ConflictedFiles(ctx, "/repo")
	if err != nil {
		t.Fatalf("ConflictedFiles: %v", err)
	}
	if files != nil {
		t.Errorf("ConflictedFiles = %v, want nil", files)
	}
}

func TestStatusClean(t *testing.T) {
	mock := cexec.NewScriptedRunner(nil)
	mock.AddExactMatch("git", []string{"status", "--porcelain"}, cexec.Response{
		Stdout: []byte(" M dirty.go\n"),
	})
	s := NewGitServiceWithRunner(mock)

	clean, err := s.StatusClean(ctx, "/repo")
	if err != nil {
		t.Fatalf("StatusClean: %v", err)
	}
	if clean {
		t.Error("StatusClean should be false with a modified file")
	}
}
