// Package structure implements the bounded directory-tree summarizer: a
// breadth-first reader that builds a FolderNode tree under a shared item
// budget, a connector renderer for the completed tree, and the truncation
// detector that selects the summary wording.
package structure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"dirscope/internal/types"
)

// ErrRootUnreadable reports that the root directory itself could not be
// listed. The same condition below the root is non-fatal.
var ErrRootUnreadable = errors.New("root directory is not readable")

const (
	// DefaultMaxItems caps the total accepted files plus folders per call.
	DefaultMaxItems = 20

	warningSkippingSubdirectoryMessage = "skipping unreadable subdirectory"
)

// DefaultIgnoredFolders are folder names that are never expanded.
var DefaultIgnoredFolders = []string{"node_modules", ".git", "dist"}

// DiscoveryService answers ignore queries for absolute paths. Both
// predicates are consulted during traversal unless disabled via Options.
type DiscoveryService interface {
	IsGitIgnored(absolutePath string) bool
	IsToolIgnored(absolutePath string) bool
}

// Options configures one summarizer invocation. The zero value selects the
// documented defaults: a budget of DefaultMaxItems, the DefaultIgnoredFolders
// name set, no file filter, and both ignore predicates active when a
// FileService is present.
type Options struct {
	MaxItems          int
	IgnoredFolders    []string
	FileInclude       func(fileName string) bool
	FileService       DiscoveryService
	DisableGitIgnore  bool
	DisableToolIgnore bool
	Logger            *zap.Logger
}

// GlobIncludePredicate builds a file-include predicate from a glob pattern
// matched against the file base name. An empty pattern accepts every file.
func GlobIncludePredicate(pattern string) func(string) bool {
	if pattern == "" {
		return nil
	}
	return func(fileName string) bool {
		matched, matchError := filepath.Match(pattern, fileName)
		return matchError == nil && matched
	}
}

// traversalContext holds the per-call state of one breadth-first read. Every
// invocation owns its own context, so concurrent calls for different roots
// never share counters or queues.
type traversalContext struct {
	budget         int
	consumed       int
	queue          []*types.FolderNode
	visited        map[string]struct{}
	ignoredFolders map[string]struct{}
	includeFile    func(string) bool
	discovery      DiscoveryService
	useGitIgnore   bool
	useToolIgnore  bool
	logger         *zap.Logger
}

func newTraversalContext(options Options) *traversalContext {
	budget := options.MaxItems
	if budget <= 0 {
		budget = DefaultMaxItems
	}
	ignoredFolderNames := options.IgnoredFolders
	if ignoredFolderNames == nil {
		ignoredFolderNames = DefaultIgnoredFolders
	}
	ignoredFolderSet := make(map[string]struct{}, len(ignoredFolderNames))
	for _, folderName := range ignoredFolderNames {
		ignoredFolderSet[folderName] = struct{}{}
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &traversalContext{
		budget:         budget,
		visited:        make(map[string]struct{}),
		ignoredFolders: ignoredFolderSet,
		includeFile:    options.FileInclude,
		discovery:      options.FileService,
		useGitIgnore:   !options.DisableGitIgnore,
		useToolIgnore:  !options.DisableToolIgnore,
		logger:         logger,
	}
}

// Read walks rootDirectoryPath breadth-first and returns the completed tree.
// The total number of accepted files plus subfolder entries, ignored
// placeholders included, never exceeds the configured budget. A read failure
// on the root aborts the call with ErrRootUnreadable; the same failure below
// the root leaves that subtree partial and traversal continues.
func Read(rootDirectoryPath string, options Options) (*types.FolderNode, error) {
	absoluteRootPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrRootUnreadable, rootDirectoryPath, absolutePathError)
	}

	rootEntries, rootReadError := os.ReadDir(absoluteRootPath)
	if rootReadError != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, rootReadError)
	}

	traversal := newTraversalContext(options)
	rootNode := &types.FolderNode{
		Name: filepath.Base(absoluteRootPath),
		Path: absoluteRootPath,
	}
	traversal.visited[resolvePath(absoluteRootPath)] = struct{}{}
	traversal.scanNode(rootNode, rootEntries)

	for len(traversal.queue) > 0 {
		currentNode := traversal.queue[0]
		traversal.queue = traversal.queue[1:]

		// A node dequeued after the budget is spent stays empty and
		// unflagged; only the node whose own scan crosses the ceiling
		// carries a truncation flag.
		if traversal.consumed >= traversal.budget {
			continue
		}

		directoryEntries, readError := os.ReadDir(currentNode.Path)
		if readError != nil {
			traversal.logger.Warn(warningSkippingSubdirectoryMessage,
				zap.String("path", currentNode.Path),
				zap.Error(readError))
			continue
		}
		traversal.scanNode(currentNode, directoryEntries)
	}

	return rootNode, nil
}

// scanNode enumerates one directory's entries into the node: files first,
// subfolders second, each entry checked against the budget before any
// predicate so that skipped entries never consume budget but an exhausted
// node is still flagged. os.ReadDir returns entries sorted by name, which
// keeps Files and Subfolders ordered.
func (traversal *traversalContext) scanNode(node *types.FolderNode, directoryEntries []os.DirEntry) {
	fileEntries, folderEntries := partitionEntries(node.Path, directoryEntries)

	for _, fileEntry := range fileEntries {
		if traversal.consumed >= traversal.budget {
			node.HasMoreFiles = true
			break
		}
		fileName := fileEntry.Name()
		if traversal.includeFile != nil && !traversal.includeFile(fileName) {
			continue
		}
		if traversal.isPathIgnored(filepath.Join(node.Path, fileName)) {
			continue
		}
		node.Files = append(node.Files, fileName)
		traversal.consumed++
		node.TotalFiles++
		node.TotalChildren++
	}

	for _, folderEntry := range folderEntries {
		if traversal.consumed >= traversal.budget {
			node.HasMoreSubfolders = true
			break
		}
		folderName := folderEntry.Name()
		childPath := filepath.Join(node.Path, folderName)
		childNode := &types.FolderNode{Name: folderName, Path: childPath}

		_, nameIgnored := traversal.ignoredFolders[folderName]
		if nameIgnored || traversal.isPathIgnored(childPath) {
			childNode.IsIgnored = true
			node.Subfolders = append(node.Subfolders, childNode)
			traversal.consumed++
			node.TotalChildren++
			continue
		}

		resolvedChildPath := resolvePath(childPath)
		if _, alreadyVisited := traversal.visited[resolvedChildPath]; alreadyVisited {
			continue
		}
		traversal.visited[resolvedChildPath] = struct{}{}

		node.Subfolders = append(node.Subfolders, childNode)
		traversal.consumed++
		node.TotalChildren++
		traversal.queue = append(traversal.queue, childNode)
	}
}

// partitionEntries splits a sorted directory listing into file and folder
// entries. Symlinks are classified by their target so that linked
// directories are traversed; unresolvable symlinks count as files.
func partitionEntries(parentPath string, directoryEntries []os.DirEntry) ([]os.DirEntry, []os.DirEntry) {
	var fileEntries []os.DirEntry
	var folderEntries []os.DirEntry
	for _, directoryEntry := range directoryEntries {
		isFolder := directoryEntry.IsDir()
		if !isFolder && directoryEntry.Type()&fs.ModeSymlink != 0 {
			targetInfo, statError := os.Stat(filepath.Join(parentPath, directoryEntry.Name()))
			isFolder = statError == nil && targetInfo.IsDir()
		}
		if isFolder {
			folderEntries = append(folderEntries, directoryEntry)
		} else {
			fileEntries = append(fileEntries, directoryEntry)
		}
	}
	return fileEntries, folderEntries
}

// isPathIgnored consults the discovery service for the active predicates.
func (traversal *traversalContext) isPathIgnored(absolutePath string) bool {
	if traversal.discovery == nil {
		return false
	}
	if traversal.useGitIgnore && traversal.discovery.IsGitIgnored(absolutePath) {
		return true
	}
	if traversal.useToolIgnore && traversal.discovery.IsToolIgnored(absolutePath) {
		return true
	}
	return false
}

// resolvePath returns the symlink-resolved form of a path, falling back to
// the input when resolution fails. Deduplication by resolved path keeps
// symlink cycles from being enumerated twice.
func resolvePath(path string) string {
	resolvedPath, resolveError := filepath.EvalSymlinks(path)
	if resolveError != nil {
		return path
	}
	return resolvedPath
}
