// Package types defines the cross-package data structures used by the dirscope CLI.
package types

const (
	CommandStructure = "structure"

	FormatText = "text"
	FormatJSON = "json"
)

// FolderNode is one directory in the summarized tree. Files and Subfolders
// are both sorted ascending by name. A node with IsIgnored set is a
// placeholder: it is counted against the item budget but never expanded, so
// its Files and Subfolders stay empty. HasMoreFiles and HasMoreSubfolders
// record that enumeration at this node stopped early because the shared
// budget ran out while this node was being scanned.
type FolderNode struct {
	Name              string        `json:"name"`
	Path              string        `json:"path"`
	Files             []string      `json:"files,omitempty"`
	Subfolders        []*FolderNode `json:"subfolders,omitempty"`
	TotalFiles        int           `json:"totalFiles"`
	TotalChildren     int           `json:"totalChildren"`
	IsIgnored         bool          `json:"isIgnored,omitempty"`
	HasMoreFiles      bool          `json:"hasMoreFiles,omitempty"`
	HasMoreSubfolders bool          `json:"hasMoreSubfolders,omitempty"`
}
