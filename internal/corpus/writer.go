package corpus

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/propmatch/internal/domain/proposal"
)

type outputDTO struct {
	Title     string    `json:"title"`
	Embedding []float32 `json:"embedding"`
}

// Write encodes records in the format Load reads.
func Write(w io.Writer, records []proposal.Record) error {
	out := make([]outputDTO, len(records))
	for i := range records {
		out[i] = outputDTO{Title: records[i].Title(), Embedding: records[i].Embedding()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}
