package model

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used for token estimates.
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes for logging. When the BPE tables
// cannot be loaded it degrades to a characters/4 heuristic.
type TokenCounter struct {
	once     sync.Once
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter for the given encoding (DefaultEncoding if empty).
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TokenCounter{encoding: encoding}
}

func (c *TokenCounter) load() {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc = enc
		}
	})
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	c.load()

	if c.enc == nil {
		return estimateTokens(text)
	}

	return len(c.enc.Encode(text, nil, nil))
}

// CountMessages sums the text tokens of msgs. Image parts are not counted.
func (c *TokenCounter) CountMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += c.Count(m.Text())
		for _, tc := range m.ToolCalls {
			total += c.Count(tc.Function.Name) + c.Count(tc.Function.Arguments)
		}
	}
	return total
}

func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
