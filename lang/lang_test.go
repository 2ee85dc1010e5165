package lang_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/lang"
	"github.com/ardnew/prex/lang/arith"
	"github.com/ardnew/prex/log"
)

func Example() {
	x := ir.NewParam("x", ir.Int64)

	node, err := arith.Language().Parse(context.Background(), "2 + x * 5", x)
	if err != nil {
		fmt.Println(err)

		return
	}

	prog, _ := ir.Compile(node, x)
	v, _ := prog(int64(2))

	fmt.Println(ir.Format(node), "=", v)
	// Output: (+ 2 (* x 5)) = 12
}

func Example_error() {
	_, err := arith.Language().Parse(context.Background(), "1 + + 5")

	var e *diag.Error
	if errors.As(err, &e) {
		fmt.Println(e.Kind)
		fmt.Println(e.Span.Start())
	}
	// Output:
	// operand expected
	// 3
}

func TestDefine_Invalid(t *testing.T) {
	_, err := lang.Define(
		grammar.NewToken("A", `a`),
		grammar.NewToken("A", `b`),
	)
	if !errors.Is(err, grammar.ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustDefine should panic on an empty grammar")
		}
	}()

	lang.MustDefine()
}

func TestLanguage_With(t *testing.T) {
	base := arith.Language()
	named := base.With(lang.WithName("calc"))

	if base.Name() != "" || named.Name() != "calc" {
		t.Errorf("names = %q, %q", base.Name(), named.Name())
	}

	_, err := named.Parse(context.Background(), "1 +")

	var e *diag.Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v", err)
	}

	if got := e.Span.String(); got != "calc:1:4" {
		t.Errorf("position = %s, want calc:1:4", got)
	}

	if len(named.Definitions()) != len(base.Definitions()) {
		t.Error("With should keep the grammar")
	}
}

func TestLanguage_Tokenize(t *testing.T) {
	toks, err := arith.Language().Tokenize(context.Background(), "max(1, x)")
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, tok := range toks {
		got = append(got, tok.String())
	}

	want := "FN_MAX(max() INT(1) COMMA(,) IDENT(x) RPAREN())"
	if s := strings.Join(got, " "); s != want {
		t.Errorf("tokens = %s, want %s", s, want)
	}
}

func TestLanguage_Cache(t *testing.T) {
	l := arith.Language(lang.WithCache(true))
	x := ir.NewParam("x", ir.Int64)

	a, err := l.Parse(context.Background(), "x * 2 + 1", x)
	if err != nil {
		t.Fatal(err)
	}

	b, err := l.Parse(context.Background(), "x * 2 + 1", x)
	if err != nil {
		t.Fatal(err)
	}

	if !ir.Equal(a, b) {
		t.Errorf("cached parse differs: %s != %s", ir.Format(a), ir.Format(b))
	}

	for range 2 {
		if _, err := l.Parse(context.Background(), "1 $"); !errors.Is(err, diag.ErrGrammarUnknown) {
			t.Errorf("error = %v, want unknown grammar", err)
		}
	}

	l.ClearCache()

	if l.With(lang.WithCache(false)).Name() != "" {
		t.Error("disabling the cache should keep other options")
	}
}

func TestLanguage_Logger(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
	)

	l := arith.Language(lang.WithLogger(logger))

	if _, err := l.Parse(context.Background(), "1 + 2"); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{`"msg":"apply"`, `"msg":"parse complete"`, `"tree":"(+ 1 2)"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %s:\n%s", want, buf.String())
		}
	}

	buf.Reset()

	if _, err := l.Parse(context.Background(), "1 +"); err == nil {
		t.Fatal("expected error")
	}

	if !strings.Contains(buf.String(), `"msg":"parse failed"`) {
		t.Errorf("log output missing failure:\n%s", buf.String())
	}
}

func TestLanguage_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := arith.Language().Parse(ctx, "1 + 2"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLanguage_Concurrent(t *testing.T) {
	l := arith.Language(lang.WithCache(true))

	var wg sync.WaitGroup

	errs := make(chan error, 64)

	for i := range 64 {
		wg.Go(func() {
			x := ir.NewParam("x", ir.Int64)
			text := fmt.Sprintf("x * %d + max(%d, 3)", i%4, i%8)

			node, err := l.Parse(context.Background(), text, x)
			if err != nil {
				errs <- err

				return
			}

			prog, err := ir.Compile(node, x)
			if err != nil {
				errs <- err

				return
			}

			got, err := prog(int64(10))
			if err != nil {
				errs <- err

				return
			}

			if want := int64(10*(i%4) + max(i%8, 3)); got != want {
				errs <- fmt.Errorf("%s = %v, want %d", text, got, want)
			}
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func FuzzParse(f *testing.F) {
	for _, s := range []string{
		"1 + 2 * 3", "(1 + 2", ")", "max(1,)", "1 + + 5", "abs()", "x ^ 2 % 3", ",",
	} {
		f.Add(s)
	}

	l := arith.Language()
	x := ir.NewParam("x", ir.Int64)

	f.Fuzz(func(t *testing.T, text string) {
		node, err := l.Parse(context.Background(), text, x)
		if err != nil {
			var e *diag.Error
			if !errors.As(err, &e) {
				t.Fatalf("%q: error %v is not a *diag.Error", text, err)
			}

			if e.Span.End() > len(text) {
				t.Fatalf("%q: span %d..%d out of range", text, e.Span.Start(), e.Span.End())
			}

			return
		}

		if node == nil {
			t.Fatalf("%q: nil node without error", text)
		}
	})
}

func BenchmarkParse(b *testing.B) {
	x := ir.NewParam("x", ir.Int64)
	text := "max(1, x * 3 + 4, 9) ^ 2 - (x % 7) / 2"

	for _, cached := range []bool{false, true} {
		b.Run(fmt.Sprintf("cache=%v", cached), func(b *testing.B) {
			l := arith.Language(lang.WithCache(cached))

			b.ReportAllocs()

			for b.Loop() {
				if _, err := l.Parse(context.Background(), text, x); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
