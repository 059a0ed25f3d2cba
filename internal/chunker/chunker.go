// Package chunker groups ordered text items into size-bounded batches for
// backend requests. Items are atomic: they are never split or dropped, and
// the concatenation of all chunks reproduces the input order exactly.
package chunker

const (
	// DefaultMaxItems is the default number of items per chunk.
	DefaultMaxItems = 10

	// DefaultMaxTokens is the default estimated token budget of the texts in
	// one chunk. Requests carry a 4096 token output budget, so this leaves
	// well over 30% headroom for the response and the instructions.
	DefaultMaxTokens = 1500

	// bytesPerToken is the approximation used by EstimateTokens.
	bytesPerToken = 4
)

// Limits bounds a single chunk. Whichever bound is hit first closes the chunk.
// Non-positive values fall back to the package defaults.
type Limits struct {
	MaxItems  int `mapstructure:"max_items" json:"max_items"`
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens"`
}

func (l Limits) normalized() Limits {
	if l.MaxItems <= 0 {
		l.MaxItems = DefaultMaxItems
	}
	if l.MaxTokens <= 0 {
		l.MaxTokens = DefaultMaxTokens
	}
	return l
}

// EstimateTokens approximates the backend cost of text as
// ceil(utf8 bytes / 4). It is 0 for empty text and grows with length.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + bytesPerToken - 1) / bytesPerToken
}

// Divide partitions items into ordered chunks. Items are accumulated while
// the running token estimate stays within lim.MaxTokens and the chunk holds
// fewer than lim.MaxItems items. An item that alone exceeds MaxTokens gets a
// chunk of its own. Zero items yield zero chunks.
func Divide[T any](items []T, sizeOf func(T) string, lim Limits) [][]T {
	if len(items) == 0 {
		return nil
	}
	lim = lim.normalized()

	var chunks [][]T
	var current []T
	tokens := 0

	for _, item := range items {
		cost := EstimateTokens(sizeOf(item))

		if len(current) > 0 && (tokens+cost > lim.MaxTokens || len(current) >= lim.MaxItems) {
			chunks = append(chunks, current)
			current = nil
			tokens = 0
		}

		current = append(current, item)
		tokens += cost
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

// Size returns the estimated token total of a chunk.
func Size[T any](chunk []T, sizeOf func(T) string) int {
	total := 0
	for _, item := range chunk {
		total += EstimateTokens(sizeOf(item))
	}
	return total
}
