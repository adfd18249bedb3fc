//go:build !onnx

package main

import (
	"log"

	"github.com/researchinpublic/mentor-go-sdk/provider"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
)

// newEmbedder returns the deterministic hash embedder. Builds tagged
// with onnx swap in the local ONNX model instead.
func newEmbedder() (provider.Embedder, error) {
	log.Printf("[MENTORD] Using hash embedder; build with -tags onnx for real embeddings")
	return mock.NewEmbedder(), nil
}
