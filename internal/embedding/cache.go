package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadSentenceCache returns the sentence→vector mapping stored at path. When
// the file does not exist the embeddings are generated for keys, written to
// path, and returned. Any other read error is fatal.
func LoadSentenceCache(ctx context.Context, path string, keys []string, emb Embedder) (map[string][]float32, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		vectors := make(map[string][]float32)
		if err := json.Unmarshal(data, &vectors); err != nil {
			return nil, fmt.Errorf("corrupt embedding cache %s: %w", path, err)
		}
		return vectors, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading embedding cache %s: %w", path, err)
	}

	vectors, err := emb.EmbedBatch(ctx, keys)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(path, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// LoadVectorList returns the flat vector list stored at path, order-aligned
// with texts. When the file does not exist each text is embedded in order and
// the list is persisted.
func LoadVectorList(ctx context.Context, path string, texts []string, emb Embedder) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var vectors [][]float32
		if err := json.Unmarshal(data, &vectors); err != nil {
			return nil, fmt.Errorf("corrupt embedding cache %s: %w", path, err)
		}
		return vectors, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading embedding cache %s: %w", path, err)
	}

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := emb.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", text, err)
		}
		vectors = append(vectors, vec)
	}
	if err := writeJSON(path, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	return nil
}
