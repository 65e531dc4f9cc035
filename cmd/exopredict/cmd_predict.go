package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/exopredict/exopredict/internal/features"
	"github.com/exopredict/exopredict/internal/pipeline"
	"github.com/exopredict/exopredict/internal/prediction"
)

var (
	predictInput string
	showVector   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify observations from a JSON file (object or array of objects)",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictInput, "input", "i", "-", "Observation JSON file, or - for stdin")
	predictCmd.Flags().BoolVar(&showVector, "show-vector", false, "Print the assembled feature vector instead of predicting")
}

type predictOutput struct {
	Index      *int               `json:"index,omitempty"`
	Prediction string             `json:"prediction,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
	Vector     map[string]float64 `json:"vector,omitempty"`
	Error      string             `json:"error,omitempty"`
	Stage      string             `json:"stage,omitempty"`
}

func runPredict(cmd *cobra.Command, _ []string) error {
	data, err := readInput(cmd.InOrStdin(), predictInput)
	if err != nil {
		return err
	}
	inputs, single, err := parseObservations(data)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(cfg.Activation.ShutdownTimeout + time.Second)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if showVector {
		return enc.Encode(vectors(a.deriver, inputs))
	}

	var outputs []predictOutput
	failed := 0
	if single {
		res, err := a.pipeline.Predict(cmd.Context(), inputs[0])
		outputs = append(outputs, toOutput(nil, res, err))
		if err != nil {
			failed++
		}
	} else {
		for _, it := range a.pipeline.PredictBatch(cmd.Context(), inputs) {
			idx := it.Index
			outputs = append(outputs, toOutput(&idx, it.Result, it.Err))
			if it.Err != nil {
				failed++
			}
		}
	}

	if single {
		err = enc.Encode(outputs[0])
	} else {
		err = enc.Encode(outputs)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d predictions failed", failed, len(inputs))
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// parseObservations accepts one JSON object or an array of objects. single
// reports which form was given.
func parseObservations(data []byte) (inputs []map[string]any, single bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, errors.New("input is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '[' {
		if err := dec.Decode(&inputs); err != nil {
			return nil, false, fmt.Errorf("decode observations: %w", err)
		}
		if len(inputs) == 0 {
			return nil, false, errors.New("input array is empty")
		}
		return inputs, false, nil
	}
	var obs map[string]any
	if err := dec.Decode(&obs); err != nil {
		return nil, false, fmt.Errorf("decode observation: %w", err)
	}
	return []map[string]any{obs}, true, nil
}

func toOutput(idx *int, res *prediction.Result, err error) predictOutput {
	out := predictOutput{Index: idx}
	if err != nil {
		out.Error = err.Error()
		out.Stage = string(pipeline.StageOf(err))
		return out
	}
	out.Prediction = res.Label
	out.Confidence = res.Confidence
	return out
}

func vectors(d features.Deriver, inputs []map[string]any) []predictOutput {
	outs := make([]predictOutput, len(inputs))
	for i, raw := range inputs {
		idx := i
		outs[i].Index = &idx
		obs, err := features.Validate(raw)
		if err != nil {
			outs[i].Error = err.Error()
			continue
		}
		derived, err := d.Derive(obs)
		if err != nil {
			outs[i].Error = err.Error()
			continue
		}
		vec, err := features.Assemble(obs, derived)
		if err != nil {
			outs[i].Error = err.Error()
			continue
		}
		outs[i].Vector = vec.Named()
	}
	return outs
}
