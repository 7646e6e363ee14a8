package structure

import "dirscope/internal/types"

// IsTruncated reports whether any node in the tree omitted content: a file
// or subfolder scan that stopped at the budget ceiling, or an ignored
// placeholder that was never expanded. The walk short-circuits on the first
// truncated node.
func IsTruncated(node *types.FolderNode) bool {
	if node == nil {
		return false
	}
	if node.HasMoreFiles || node.HasMoreSubfolders || node.IsIgnored {
		return true
	}
	for _, subfolder := range node.Subfolders {
		if IsTruncated(subfolder) {
			return true
		}
	}
	return false
}
