//go:build onnx

package main

import (
	"os"

	"github.com/researchinpublic/mentor-go-sdk/provider"
	"github.com/researchinpublic/mentor-go-sdk/provider/onnx"
)

// newEmbedder loads the local ONNX sentence embedder. Model paths come
// from the environment so deployments can ship their own weights.
func newEmbedder() (provider.Embedder, error) {
	return onnx.New(onnx.Config{
		ModelPath:     os.Getenv("MENTOR_ONNX_MODEL"),
		TokenizerPath: os.Getenv("MENTOR_ONNX_VOCAB"),
	})
}
