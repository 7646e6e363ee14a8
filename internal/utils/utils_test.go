package utils_test

import (
	"testing"

	"dirscope/internal/utils"
)

func TestNewApplicationLogger(testingHandle *testing.T) {
	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		testingHandle.Fatalf("NewApplicationLogger error: %v", loggerError)
	}
	if logger == nil {
		testingHandle.Fatalf("expected a non-nil logger")
	}
}

func TestGetApplicationVersion(testingHandle *testing.T) {
	if version := utils.GetApplicationVersion(); version == "" {
		testingHandle.Fatalf("version must never be empty")
	}
}
