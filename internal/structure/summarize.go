package structure

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	summaryHeaderFormat    = "Showing up to %d items (files + folders)."
	truncationNoticeFormat = " Folders or files indicated with %s contain more items not shown, were ignored, or the display limit (%d items) was reached."

	rootUnreadableFormat  = "Error: Could not read directory %q. Check path and permissions."
	processingErrorFormat = "Error processing directory %q: %v"
)

// Summarize produces the bounded textual summary for directoryPath. It never
// returns an error to its caller: a failure to read the root, and any
// unexpected failure during traversal or rendering, are converted into an
// explanatory string.
func Summarize(directoryPath string, options Options) string {
	summaryText, summarizeError := trySummarize(directoryPath, options)
	if summarizeError == nil {
		return summaryText
	}
	if errors.Is(summarizeError, ErrRootUnreadable) {
		return fmt.Sprintf(rootUnreadableFormat, directoryPath)
	}
	return fmt.Sprintf(processingErrorFormat, directoryPath, summarizeError)
}

// trySummarize runs the read-render-detect pipeline, translating panics into
// errors so that Summarize can keep its string-only contract.
func trySummarize(directoryPath string, options Options) (summaryText string, summarizeError error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			summarizeError = fmt.Errorf("unexpected failure: %v", recovered)
		}
	}()

	rootNode, readError := Read(directoryPath, options)
	if readError != nil {
		return "", readError
	}

	renderedLines := Render(rootNode)
	truncated := IsTruncated(rootNode)

	budget := options.MaxItems
	if budget <= 0 {
		budget = DefaultMaxItems
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(summaryHeaderFormat, budget))
	if truncated {
		builder.WriteString(fmt.Sprintf(truncationNoticeFormat, TruncationIndicator, budget))
	}
	builder.WriteString("\n\n")
	builder.WriteString(rootNode.Path)
	builder.WriteString(string(os.PathSeparator))
	builder.WriteString("\n")
	for _, renderedLine := range renderedLines {
		builder.WriteString(renderedLine)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
