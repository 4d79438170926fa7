package service

import (
	"strings"
	"unicode"

	"github.com/atlantislabs/atlantis/internal/domain"
)

// ChunkConfig controls how document text is split for embedding.
type ChunkConfig struct {
	// Size is the target window length in runes.
	Size int
	// Overlap is the redundancy between consecutive windows.
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    1000,
		Overlap: 200,
	}
}

// SplitText splits text into overlapping windows of approximately cfg.Size
// runes, preferring paragraph, then sentence, then word boundaries before
// falling back to a hard cut. Blank windows are dropped. The split is
// deterministic for identical input and configuration.
func SplitText(text string, cfg ChunkConfig) ([]string, error) {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		cfg.Overlap = cfg.Size - 1
	}

	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil, domain.ErrNoExtractableText
	}

	runes := []rune(clean)
	if len(runes) <= cfg.Size {
		return []string{clean}, nil
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			end = breakPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}
	return chunks, nil
}

// breakPoint scans backward from end for the best natural boundary: a
// paragraph break, then a sentence end, then any whitespace. The cut never
// moves before the window midpoint so windows stay near the target size.
func breakPoint(runes []rune, start, end int) int {
	minCut := start + (end-start)/2

	for i := end; i > minCut; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	for i := end; i > minCut; i-- {
		if isSentenceEnd(runes[i-1]) && i < len(runes) && unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	for i := end; i > minCut; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
