package lang

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/prex/span"
	"github.com/ardnew/prex/token"
)

// cacheLimit is the number of sources a cache holds before it is emptied.
const cacheLimit = 1024

// cache stores tokenized sources keyed by the xxh3 hash of the language name
// and source text.
type cache struct {
	entries sync.Map // uint64 -> *entry
	size    atomic.Int64
}

// entry tracks the tokenizing of one source. The first caller does the work;
// concurrent callers wait on once.
type entry struct {
	once sync.Once
	text string
	src  *span.Source
	toks []token.Token
	err  error
}

func hashSource(name, text string) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(text)

	return h.Sum64()
}

func (c *cache) load(
	ctx context.Context,
	l *Language,
	text string,
) (*span.Source, []token.Token, error) {
	key := hashSource(l.name, text)

	value, hit := c.entries.Load(key)
	if !hit {
		if c.size.Add(1) > cacheLimit {
			c.clear()
			c.size.Add(1)
		}

		value, hit = c.entries.LoadOrStore(key, &entry{text: text})
	}

	e := value.(*entry)

	l.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(key, 16)),
		slog.Int("source_bytes", len(text)),
		slog.Bool("cache_hit", hit),
	)

	if e.text != text {
		l.logger.TraceContext(ctx, "cache bypass",
			slog.String("source_hash", strconv.FormatUint(key, 16)))

		src := span.NewSource(l.name, text)
		toks, err := l.collect(ctx, src)

		return src, toks, err
	}

	e.once.Do(func() {
		e.src = span.NewSource(l.name, text)
		// A cancelled caller must not poison the entry for others.
		e.toks, e.err = l.collect(context.WithoutCancel(ctx), e.src)
	})

	return e.src, e.toks, e.err
}

func (c *cache) clear() {
	c.entries.Clear()
	c.size.Store(0)
}

// ClearCache removes every memoized source. It is a no-op if the cache is
// disabled.
func (l *Language) ClearCache() {
	if l.cache != nil {
		l.cache.clear()
	}
}
