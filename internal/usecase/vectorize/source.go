package vectorize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// sourceDTO keeps fields loose so one bad record does not fail the whole file.
type sourceDTO struct {
	Title any `json:"title"`
	Text  any `json:"text"`
}

// Input is one extracted proposal as read from disk. Title and Text are empty
// when the field is missing or not a string.
type Input struct {
	Title string
	Text  string
}

// ReadSources decodes a JSON array of {"title", "text"} objects.
func ReadSources(r io.Reader) ([]Input, error) {
	var raw []sourceDTO
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode proposals: %w", err)
	}
	out := make([]Input, len(raw))
	for i, d := range raw {
		out[i] = Input{Title: asString(d.Title), Text: asString(d.Text)}
	}
	return out, nil
}

// ReadSourcesFile opens path and decodes it.
func ReadSourcesFile(path string) ([]Input, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open proposals %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadSources(f)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
