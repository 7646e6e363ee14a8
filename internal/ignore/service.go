// Package ignore supplies the file discovery predicates consumed by the
// structure reader: Git ignore matching with lazily loaded nested .gitignore
// files, and matching against the tool's own root-level .ignore file.
package ignore

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"dirscope/internal/utils"
)

// Service answers ignore queries for paths under one root directory. It is
// built per invocation and is not safe for concurrent use; each summarizer
// call owns its own Service.
type Service struct {
	rootPath    string
	toolMatcher *gitignore.GitIgnore
	gitMatchers map[string]*gitignore.GitIgnore
	loadedDirs  map[string]struct{}
}

// NewService creates a Service rooted at absoluteRootPath. The root's
// .ignore file is compiled eagerly when present; .gitignore files are
// compiled lazily as directories are first consulted.
func NewService(absoluteRootPath string) *Service {
	service := &Service{
		rootPath:    filepath.Clean(absoluteRootPath),
		gitMatchers: make(map[string]*gitignore.GitIgnore),
		loadedDirs:  make(map[string]struct{}),
	}
	if toolMatcher, compileError := gitignore.CompileIgnoreFile(filepath.Join(service.rootPath, utils.IgnoreFileName)); compileError == nil {
		service.toolMatcher = toolMatcher
	}
	return service
}

// IsGitIgnored reports whether absolutePath matches a .gitignore rule in any
// directory between the root and the path's parent.
func (service *Service) IsGitIgnored(absolutePath string) bool {
	relativePath, insideRoot := service.relativeToRoot(absolutePath)
	if !insideRoot {
		return false
	}
	service.loadMatchersAlong(relativePath)

	currentDirectory := filepath.Dir(absolutePath)
	for {
		if matcher, present := service.gitMatchers[currentDirectory]; present {
			relativeToMatcher, relativeError := filepath.Rel(currentDirectory, absolutePath)
			if relativeError == nil && matcher.MatchesPath(relativeToMatcher) {
				return true
			}
		}
		if currentDirectory == service.rootPath {
			break
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}
	return false
}

// IsToolIgnored reports whether absolutePath matches the root .ignore file.
func (service *Service) IsToolIgnored(absolutePath string) bool {
	if service.toolMatcher == nil {
		return false
	}
	relativePath, insideRoot := service.relativeToRoot(absolutePath)
	if !insideRoot {
		return false
	}
	return service.toolMatcher.MatchesPath(relativePath)
}

// relativeToRoot returns the path relative to the service root and whether
// the path lies inside the root.
func (service *Service) relativeToRoot(absolutePath string) (string, bool) {
	relativePath, relativeError := filepath.Rel(service.rootPath, filepath.Clean(absolutePath))
	if relativeError != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return "", false
	}
	return relativePath, true
}

// loadMatchersAlong compiles the .gitignore of every directory on the way
// from the root to the entry's parent, once per directory.
func (service *Service) loadMatchersAlong(relativePath string) {
	service.loadMatcherFor(service.rootPath)
	parentSegments := strings.Split(filepath.ToSlash(filepath.Dir(relativePath)), "/")
	currentDirectory := service.rootPath
	for _, pathSegment := range parentSegments {
		if pathSegment == "." || pathSegment == "" {
			break
		}
		currentDirectory = filepath.Join(currentDirectory, pathSegment)
		service.loadMatcherFor(currentDirectory)
	}
}

func (service *Service) loadMatcherFor(directory string) {
	if _, alreadyLoaded := service.loadedDirs[directory]; alreadyLoaded {
		return
	}
	service.loadedDirs[directory] = struct{}{}
	if matcher, compileError := gitignore.CompileIgnoreFile(filepath.Join(directory, utils.GitIgnoreFileName)); compileError == nil {
		service.gitMatchers[directory] = matcher
	}
}
