package mlp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func LoadParametersJSON(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var params Parameters
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("decode parameters %s: %w", path, err)
	}
	for i, p := range params {
		if len(p.Weight.Data) != p.Weight.Rows*p.Weight.Cols || len(p.Bias.Data) != p.Bias.N {
			return nil, fmt.Errorf("%w: layer %d of %s is corrupt", ErrShapeMismatch, i, path)
		}
	}
	return params, nil
}

func (ps Parameters) WriteJSON(path string) error {
	data, err := json.Marshal(ps)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
