package tokenizer_test

import (
	"testing"

	"dirscope/internal/tokenizer"
)

func TestNewCounterCountsTokens(testingHandle *testing.T) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: "gpt-4o"})
	if counterError != nil {
		testingHandle.Skipf("tokenizer unavailable: %v", counterError)
	}
	if resolvedModel == "" || counter.Name() != resolvedModel {
		testingHandle.Fatalf("unexpected resolved model: %q vs %q", resolvedModel, counter.Name())
	}

	tokenCount, countError := counter.CountString("Showing up to 20 items (files + folders).")
	if countError != nil {
		testingHandle.Fatalf("CountString error: %v", countError)
	}
	if tokenCount <= 0 {
		testingHandle.Fatalf("expected a positive token count, got %d", tokenCount)
	}
}

func TestNewCounterFallsBackOnUnknownModel(testingHandle *testing.T) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: "not-a-real-model"})
	if counterError != nil {
		testingHandle.Skipf("tokenizer unavailable: %v", counterError)
	}
	if resolvedModel != "cl100k_base" {
		testingHandle.Fatalf("expected the fallback encoding, got %q", resolvedModel)
	}
	if counter == nil {
		testingHandle.Fatalf("fallback counter must not be nil")
	}
}
