// Package output turns aggregated pair scores into the per-profile result
// document and writes it as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spigell/match-scorer/internal/matching"
)

// Document is the serialized form of a run.
type Document struct {
	Results []ProfileResult `json:"results"`
}

// ProfileResult lists the scores of one source profile.
type ProfileResult struct {
	ProfileID int          `json:"profileId"`
	Scores    []ScoreEntry `json:"scores"`
}

// ScoreEntry is the score of the source profile against one target.
type ScoreEntry struct {
	ProfileID int     `json:"profileId"`
	Score     float64 `json:"score"`
}

// Shape groups pair scores by source profile. Sources keep their input
// order and every source gets an entry, even with no scores. Targets keep
// the order in which they were scored.
func Shape(results *matching.Results) Document {
	sources := results.Sources()
	bySource := make(map[int]*ProfileResult, len(sources))
	doc := Document{Results: make([]ProfileResult, len(sources))}

	for i, id := range sources {
		doc.Results[i] = ProfileResult{ProfileID: id, Scores: []ScoreEntry{}}
		bySource[id] = &doc.Results[i]
	}

	for _, ps := range results.Pairs() {
		entry, ok := bySource[ps.Source]
		if !ok {
			continue
		}
		entry.Scores = append(entry.Scores, ScoreEntry{ProfileID: ps.Target, Score: ps.Score})
	}

	return doc
}

// Len returns the number of score entries across all profiles.
func (d Document) Len() int {
	n := 0
	for _, r := range d.Results {
		n += len(r.Scores)
	}
	return n
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{Results: make([]ProfileResult, len(d.Results))}
	for i, r := range d.Results {
		scores := make([]ScoreEntry, len(r.Scores))
		copy(scores, r.Scores)
		out.Results[i] = ProfileResult{ProfileID: r.ProfileID, Scores: scores}
	}
	return out
}

// Write encodes the document as JSON.
func Write(w io.Writer, doc Document, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// WriteFile writes the document to path, replacing any existing content.
func WriteFile(path string, doc Document, indent bool) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}

	if err := Write(file, doc, indent); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
