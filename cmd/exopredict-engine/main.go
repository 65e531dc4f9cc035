// exopredict-engine runs the exported exoplanet classifier once.
//
// Usage:
//
//	exopredict-engine [--model-dir=<dir>] '<json array of 13 numbers>'
//
// It prints one JSON object to stdout and exits 0, or writes a diagnostic
// to stderr and exits non-zero.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/exopredict/exopredict/internal/features"
	"github.com/exopredict/exopredict/internal/onnxmodel"
)

const (
	exitUsage        = 2
	exitModelMissing = 3
	exitModelError   = 4
)

// version is set at build time via -ldflags.
var version = "dev"

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var modelDir string

var rootCmd = &cobra.Command{
	Use:           "exopredict-engine '<json array>'",
	Short:         "Classify one exoplanet feature vector with the ONNX model",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.OutOrStdout(), modelDir, args[0])
	},
}

func init() {
	def := os.Getenv("EXOPREDICT_MODEL_DIR")
	if def == "" {
		def = "model"
	}
	rootCmd.Flags().StringVar(&modelDir, "model-dir", def, "Directory holding model.onnx and label_map.json")
	rootCmd.Version = version
}

func run(out io.Writer, dir, arg string) error {
	var vec features.Vector
	if err := json.Unmarshal([]byte(arg), &vec); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	model, err := onnxmodel.Load(dir)
	if errors.Is(err, onnxmodel.ErrModelNotFound) {
		return &exitError{code: exitModelMissing, err: err}
	}
	if err != nil {
		return &exitError{code: exitModelError, err: err}
	}
	defer model.Close()

	pred, err := model.Predict(vec)
	if err != nil {
		return &exitError{code: exitModelError, err: err}
	}
	return json.NewEncoder(out).Encode(pred)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := exitUsage
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}
