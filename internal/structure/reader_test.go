package structure_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dirscope/internal/structure"
)

// stubDiscoveryService answers ignore queries from fixed base-name sets.
type stubDiscoveryService struct {
	gitIgnoredNames  map[string]bool
	toolIgnoredNames map[string]bool
}

func (service stubDiscoveryService) IsGitIgnored(absolutePath string) bool {
	return service.gitIgnoredNames[filepath.Base(absolutePath)]
}

func (service stubDiscoveryService) IsToolIgnored(absolutePath string) bool {
	return service.toolIgnoredNames[filepath.Base(absolutePath)]
}

func writeTestFile(testingHandle *testing.T, path string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(path, []byte("content"), 0o644); writeError != nil {
		testingHandle.Fatalf("writing %s: %v", path, writeError)
	}
}

func makeTestDirectory(testingHandle *testing.T, path string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(path, 0o755); makeDirError != nil {
		testingHandle.Fatalf("creating %s: %v", path, makeDirError)
	}
}

func TestReadAcceptsEverythingWithinBudget(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.txt"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "sub"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "sub", "c.txt"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if !reflect.DeepEqual(rootNode.Files, []string{"a.txt", "b.txt"}) {
		testingHandle.Fatalf("unexpected files: %v", rootNode.Files)
	}
	if len(rootNode.Subfolders) != 1 || rootNode.Subfolders[0].Name != "sub" {
		testingHandle.Fatalf("unexpected subfolders: %+v", rootNode.Subfolders)
	}
	if rootNode.TotalFiles != 2 || rootNode.TotalChildren != 3 {
		testingHandle.Fatalf("unexpected totals: files=%d children=%d", rootNode.TotalFiles, rootNode.TotalChildren)
	}
	subfolderNode := rootNode.Subfolders[0]
	if !reflect.DeepEqual(subfolderNode.Files, []string{"c.txt"}) {
		testingHandle.Fatalf("unexpected subfolder files: %v", subfolderNode.Files)
	}
	if rootNode.HasMoreFiles || rootNode.HasMoreSubfolders || subfolderNode.HasMoreFiles || subfolderNode.HasMoreSubfolders {
		testingHandle.Fatalf("no truncation flags expected: %+v", rootNode)
	}
	if structure.IsTruncated(rootNode) {
		testingHandle.Fatalf("tree within budget must not be truncated")
	}
}

func TestReadStopsFileScanAtBudget(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.txt"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{MaxItems: 1})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if !reflect.DeepEqual(rootNode.Files, []string{"a.txt"}) {
		testingHandle.Fatalf("unexpected files: %v", rootNode.Files)
	}
	if !rootNode.HasMoreFiles {
		testingHandle.Fatalf("expected HasMoreFiles after hitting the budget")
	}
	if rootNode.TotalChildren != 1 {
		testingHandle.Fatalf("unexpected total children: %d", rootNode.TotalChildren)
	}
}

func TestReadIgnoredFolderBecomesPlaceholder(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.txt"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "node_modules"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "node_modules", "inner.txt"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if len(rootNode.Subfolders) != 1 {
		testingHandle.Fatalf("expected one subfolder, got %d", len(rootNode.Subfolders))
	}
	placeholderNode := rootNode.Subfolders[0]
	if placeholderNode.Name != "node_modules" || !placeholderNode.IsIgnored {
		testingHandle.Fatalf("expected ignored placeholder, got %+v", placeholderNode)
	}
	if len(placeholderNode.Files) != 0 || len(placeholderNode.Subfolders) != 0 {
		testingHandle.Fatalf("placeholder must stay empty: %+v", placeholderNode)
	}
	if rootNode.TotalChildren != 3 {
		testingHandle.Fatalf("placeholder must count toward total children, got %d", rootNode.TotalChildren)
	}
	if !structure.IsTruncated(rootNode) {
		testingHandle.Fatalf("placeholder must mark the tree truncated")
	}
}

func TestReadFileIncludePredicateSkipsWithoutBudget(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.go"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "c.go"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{
		MaxItems:    2,
		FileInclude: structure.GlobIncludePredicate("*.go"),
	})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if !reflect.DeepEqual(rootNode.Files, []string{"b.go", "c.go"}) {
		testingHandle.Fatalf("unexpected files: %v", rootNode.Files)
	}
	if rootNode.HasMoreFiles {
		testingHandle.Fatalf("skipped files must not consume budget")
	}
}

func TestReadBudgetIsSharedAcrossTheTree(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.txt"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "dir1"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "dir1", "b.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "dir1", "c.txt"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{MaxItems: 3})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	subfolderNode := rootNode.Subfolders[0]
	if !reflect.DeepEqual(subfolderNode.Files, []string{"b.txt"}) {
		testingHandle.Fatalf("unexpected subfolder files: %v", subfolderNode.Files)
	}
	if !subfolderNode.HasMoreFiles {
		testingHandle.Fatalf("expected HasMoreFiles on the node that crossed the ceiling")
	}
	acceptedItems := rootNode.TotalChildren + subfolderNode.TotalChildren
	if acceptedItems != 3 {
		testingHandle.Fatalf("accepted items must equal the budget, got %d", acceptedItems)
	}
}

// TestReadLeavesPostBudgetNodesUnflagged pins the legacy behavior: a node
// dequeued after the budget was spent stays empty without truncation flags,
// so a tree can omit content yet report no truncation at all.
func TestReadLeavesPostBudgetNodesUnflagged(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "alpha"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "alpha", "x.txt"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "beta"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "beta", "y.txt"))

	rootNode, readError := structure.Read(rootDirectory, structure.Options{MaxItems: 2})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if len(rootNode.Subfolders) != 2 {
		testingHandle.Fatalf("expected both subfolders accepted, got %d", len(rootNode.Subfolders))
	}
	for _, subfolderNode := range rootNode.Subfolders {
		if len(subfolderNode.Files) != 0 || subfolderNode.HasMoreFiles || subfolderNode.HasMoreSubfolders {
			testingHandle.Fatalf("post-budget node must stay empty and unflagged: %+v", subfolderNode)
		}
	}
	if structure.IsTruncated(rootNode) {
		testingHandle.Fatalf("legacy behavior: no truncation is reported when the budget ran out between nodes")
	}
}

func TestReadSymlinkCycleEnumeratedOnce(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	makeTestDirectory(testingHandle, nestedDirectory)
	if symlinkError := os.Symlink(rootDirectory, filepath.Join(nestedDirectory, "loop")); symlinkError != nil {
		testingHandle.Skipf("symlinks not supported: %v", symlinkError)
	}

	rootNode, readError := structure.Read(rootDirectory, structure.Options{})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}

	if len(rootNode.Subfolders) != 1 || rootNode.Subfolders[0].Name != "nested" {
		testingHandle.Fatalf("unexpected root subfolders: %+v", rootNode.Subfolders)
	}
	nestedNode := rootNode.Subfolders[0]
	if len(nestedNode.Subfolders) != 0 {
		testingHandle.Fatalf("cycle back to the root must not be enumerated again: %+v", nestedNode.Subfolders)
	}
}

func TestReadRespectsDiscoveryService(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "kept.txt"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "secret.txt"))
	makeTestDirectory(testingHandle, filepath.Join(rootDirectory, "generated"))

	discoveryService := stubDiscoveryService{
		gitIgnoredNames:  map[string]bool{"secret.txt": true},
		toolIgnoredNames: map[string]bool{"generated": true},
	}

	rootNode, readError := structure.Read(rootDirectory, structure.Options{FileService: discoveryService})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}
	if !reflect.DeepEqual(rootNode.Files, []string{"kept.txt"}) {
		testingHandle.Fatalf("git-ignored file must be skipped: %v", rootNode.Files)
	}
	if len(rootNode.Subfolders) != 1 || !rootNode.Subfolders[0].IsIgnored {
		testingHandle.Fatalf("tool-ignored folder must become a placeholder: %+v", rootNode.Subfolders)
	}

	rootNode, readError = structure.Read(rootDirectory, structure.Options{
		FileService:       discoveryService,
		DisableGitIgnore:  true,
		DisableToolIgnore: true,
	})
	if readError != nil {
		testingHandle.Fatalf("Read error: %v", readError)
	}
	if !reflect.DeepEqual(rootNode.Files, []string{"kept.txt", "secret.txt"}) {
		testingHandle.Fatalf("disabled predicates must not filter files: %v", rootNode.Files)
	}
	if len(rootNode.Subfolders) != 1 || rootNode.Subfolders[0].IsIgnored {
		testingHandle.Fatalf("disabled predicates must not produce placeholders: %+v", rootNode.Subfolders)
	}
}

func TestReadUnreadableRootFails(testingHandle *testing.T) {
	missingPath := filepath.Join(testingHandle.TempDir(), "does-not-exist")

	_, readError := structure.Read(missingPath, structure.Options{})
	if readError == nil {
		testingHandle.Fatalf("expected an error for a missing root")
	}
	if !errors.Is(readError, structure.ErrRootUnreadable) {
		testingHandle.Fatalf("expected ErrRootUnreadable, got %v", readError)
	}
}

func TestReadSkipsUnreadableSubdirectory(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("permission checks do not apply to root")
	}
	rootDirectory := testingHandle.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	makeTestDirectory(testingHandle, lockedDirectory)
	writeTestFile(testingHandle, filepath.Join(lockedDirectory, "hidden.txt"))
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	testingHandle.Cleanup(func() {
		_ = os.Chmod(lockedDirectory, 0o755)
	})

	rootNode, readError := structure.Read(rootDirectory, structure.Options{})
	if readError != nil {
		testingHandle.Fatalf("subtree failures must not fail the call: %v", readError)
	}
	if len(rootNode.Subfolders) != 1 {
		testingHandle.Fatalf("unreadable subfolder entry must still appear: %+v", rootNode.Subfolders)
	}
	lockedNode := rootNode.Subfolders[0]
	if len(lockedNode.Files) != 0 || lockedNode.HasMoreFiles {
		testingHandle.Fatalf("unreadable subtree must stay partial: %+v", lockedNode)
	}
}
