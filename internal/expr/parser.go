package expr

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of parsed expressions a Parser keeps.
const DefaultCacheSize = 512

// Parser parses expression text and keeps recently parsed expressions, so
// datums that share a formula share one syntax tree.
type Parser struct {
	cache  *lru.Cache[string, *Expression]
	parses atomic.Int64
}

// NewParser creates a Parser caching up to size expressions. A size of zero
// or less selects DefaultCacheSize.
func NewParser(size int) *Parser {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, *Expression](size)
	return &Parser{cache: cache}
}

// Parse returns the parsed form of source, from the cache when possible.
// Malformed text is never cached.
func (p *Parser) Parse(source string) (*Expression, error) {
	if e, ok := p.cache.Get(source); ok {
		return e, nil
	}

	p.parses.Add(1)
	e, err := Parse(source)
	if err != nil {
		return nil, err
	}
	p.cache.Add(source, e)
	return e, nil
}

// Parses returns how many times source text was actually parsed.
func (p *Parser) Parses() int64 {
	return p.parses.Load()
}
