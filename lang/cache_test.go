package lang

import (
	"context"
	"fmt"
	"testing"

	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
)

func words(t *testing.T) *Language {
	t.Helper()

	l, err := Define(
		grammar.NewIgnore("WS", `\s+`),
		grammar.NewOperand("WORD", `[a-z0-9]+`, func(text string, _ []*ir.Param) (ir.Node, error) {
			return ir.Constant(text)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	return l.With(WithCache(true))
}

func TestCache_Limit(t *testing.T) {
	l := words(t)
	ctx := context.Background()

	for i := range cacheLimit + 10 {
		if _, err := l.Tokenize(ctx, fmt.Sprint("w", i)); err != nil {
			t.Fatal(err)
		}
	}

	if got := l.cache.size.Load(); got > cacheLimit {
		t.Errorf("size = %d, want at most %d", got, cacheLimit)
	}

	var n int64

	l.cache.entries.Range(func(any, any) bool {
		n++

		return true
	})

	if n > cacheLimit {
		t.Errorf("entries = %d, want at most %d", n, cacheLimit)
	}

	l.ClearCache()

	if got := l.cache.size.Load(); got != 0 {
		t.Errorf("size after clear = %d, want 0", got)
	}
}

func TestCache_Key(t *testing.T) {
	tests := []struct {
		a, b [2]string
		same bool
	}{
		{[2]string{"x", "abc"}, [2]string{"x", "abc"}, true},
		{[2]string{"x", "abc"}, [2]string{"y", "abc"}, false},
		{[2]string{"ab", "c"}, [2]string{"a", "bc"}, false},
		{[2]string{"", "abc"}, [2]string{"", "abd"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.a[0]+"/"+tt.a[1], func(t *testing.T) {
			a, b := hashSource(tt.a[0], tt.a[1]), hashSource(tt.b[0], tt.b[1])
			if (a == b) != tt.same {
				t.Errorf("hashSource(%q) == hashSource(%q) is %v, want %v", tt.a, tt.b, a == b, tt.same)
			}
		})
	}
}

func TestCache_Collision(t *testing.T) {
	l := words(t)
	ctx := context.Background()

	// Plant an entry for other text under the key of "real".
	key := hashSource(l.name, "real")
	l.cache.entries.Store(key, &entry{text: "planted"})

	toks, err := l.Tokenize(ctx, "real")
	if err != nil {
		t.Fatal(err)
	}

	if len(toks) != 1 || toks[0].Value != "real" {
		t.Errorf("tokens = %v, want [real]", toks)
	}
}
