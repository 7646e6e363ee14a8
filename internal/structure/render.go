package structure

import (
	"os"

	"dirscope/internal/types"
)

const (
	treeBranchConnector = "├───"
	treeLastConnector   = "└───"
	treeBranchIndent    = "│   "
	treeLastIndent      = "    "

	// TruncationIndicator marks positions where content was omitted.
	TruncationIndicator = "..."
)

// Render walks the completed tree depth-first and returns the tree-drawing
// lines for every node below the root. The root itself is not rendered; the
// caller prints its path as a header. Rendering is a pure function of the
// tree, so the same tree always yields byte-identical lines.
func Render(rootNode *types.FolderNode) []string {
	var renderedLines []string
	if rootNode != nil {
		renderNodeChildren(rootNode, "", &renderedLines)
	}
	return renderedLines
}

// renderNodeChildren emits one line per accepted file, one truncation line
// when file enumeration stopped early, one line per subfolder with recursion
// into the non-ignored ones, and a final truncation line when subfolder
// enumeration stopped early. A line's connector depends on whether anything
// renders after it at the same level.
func renderNodeChildren(node *types.FolderNode, indent string, renderedLines *[]string) {
	subfoldersFollow := len(node.Subfolders) > 0 || node.HasMoreSubfolders

	for fileIndex, fileName := range node.Files {
		isLastLine := fileIndex == len(node.Files)-1 && !node.HasMoreFiles && !subfoldersFollow
		*renderedLines = append(*renderedLines, indent+connectorFor(isLastLine)+fileName)
	}
	if node.HasMoreFiles {
		*renderedLines = append(*renderedLines, indent+connectorFor(!subfoldersFollow)+TruncationIndicator)
	}

	for subfolderIndex, subfolder := range node.Subfolders {
		isLastLine := subfolderIndex == len(node.Subfolders)-1 && !node.HasMoreSubfolders
		subfolderLine := indent + connectorFor(isLastLine) + subfolder.Name + string(os.PathSeparator)
		if subfolder.IsIgnored {
			*renderedLines = append(*renderedLines, subfolderLine+TruncationIndicator)
			continue
		}
		*renderedLines = append(*renderedLines, subfolderLine)

		childIndent := indent + treeBranchIndent
		if isLastLine {
			childIndent = indent + treeLastIndent
		}
		renderNodeChildren(subfolder, childIndent, renderedLines)
	}

	if node.HasMoreSubfolders {
		*renderedLines = append(*renderedLines, indent+treeLastConnector+TruncationIndicator)
	}
}

func connectorFor(isLastLine bool) string {
	if isLastLine {
		return treeLastConnector
	}
	return treeBranchConnector
}
