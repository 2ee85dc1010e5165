package script_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/lang/script"
)

func eval(t *testing.T, g *script.Globals, text string) any {
	t.Helper()

	v, err := script.Eval(context.Background(), script.Language(g), text, nil)
	if err != nil {
		t.Fatalf("Eval(%q): %v", text, err)
	}

	return v
}

func TestScript_Eval(t *testing.T) {
	t.Setenv("PREX_SCRIPT_TEST", "hello")

	tests := []struct {
		text string
		want any
	}{
		{`1 + 2 * 3`, int64(7)},
		{`7 / 2.0`, 3.5},
		{`1 .. 2`, "12"},
		{`"a" .. nil`, "anil"},
		{`"n=" .. 1 + 2`, "n=3"},
		{`upper("a") .. lower("B")`, "Ab"},
		{`len("héllo")`, int64(5)},
		{`str(1.5)`, "1.5"},
		{`"x" == "x" && 1 < 2`, true},
		{`!true || 2 >= 3`, false},
		{`3 != 3`, false},
		{`1 + 2 # trailing comment`, int64(3)},
		{"\"tab\\there\"", "tab\there"},
		{`env("PREX_SCRIPT_TEST")`, "hello"},
		{`pathcat("a", "b", "c")`, "a/b/c"},
		{`let("a", 2) let("b", $a * 3) $b + 1`, int64(7)},
		{"let(\"s\", \"x\")\n# comment\n$s .. $s", "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := eval(t, new(script.Globals), tt.text); got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestScript_Params(t *testing.T) {
	x := ir.NewParam("x", ir.Int64)

	got, err := script.Eval(context.Background(), script.Language(new(script.Globals)),
		`x * 2 .. "!"`, []*ir.Param{x}, int64(4))
	if err != nil {
		t.Fatal(err)
	}

	if got != "8!" {
		t.Errorf("got %v, want 8!", got)
	}
}

func TestGlobals(t *testing.T) {
	var g script.Globals

	l := script.Language(&g)

	if _, err := l.Parse(context.Background(), `let("n", 5) let("name", "bolt") 0`); err != nil {
		t.Fatal(err)
	}

	if got := g.Names(); !slices.Equal(got, []string{"n", "name"}) {
		t.Errorf("Names() = %v", got)
	}

	node, err := l.Parse(context.Background(), `$n * 2`)
	if err != nil {
		t.Fatal(err)
	}

	prog, err := ir.Compile(node)
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{5, 7} {
		if err := g.Store("n", n); err != nil {
			t.Fatal(err)
		}

		if got, _ := prog(); got != int64(2*n) {
			t.Errorf("n = %d: got %v, want %d", n, got, 2*n)
		}
	}

	g.Delete("n")

	if _, err := prog(); !errors.Is(err, script.ErrUndefined) {
		t.Errorf("error = %v, want ErrUndefined", err)
	}

	if err := g.Store("bad", []int{1}); !errors.Is(err, script.ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}

func TestGlobals_Concurrent(t *testing.T) {
	var (
		g  script.Globals
		wg sync.WaitGroup
	)

	l := script.Language(&g)
	errs := make(chan error, 32)

	for i := range 32 {
		wg.Go(func() {
			name := fmt.Sprintf("v%d", i)
			text := fmt.Sprintf(`let(%q, %d) $%s + 1`, name, i, name)

			v, err := script.Eval(context.Background(), l, text, nil)
			if err != nil {
				errs <- err

				return
			}

			if v != int64(i+1) {
				errs <- fmt.Errorf("%s = %v, want %d", text, v, i+1)
			}
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if n := len(g.Names()); n != 32 {
		t.Errorf("len(Names()) = %d, want 32", n)
	}
}

func TestScript_Path(t *testing.T) {
	g := new(script.Globals)

	got := eval(t, g, `pathprefix("/usr/bin", "/opt/bin")`).(string)
	for _, want := range []string{"/usr/bin", "/opt/bin"} {
		if !strings.Contains(got, want) {
			t.Errorf("pathprefix = %q, missing %s", got, want)
		}
	}

	dir := t.TempDir()

	got = eval(t, g, fmt.Sprintf(`pathprefixdir("", %q)`, dir)).(string)
	if !strings.Contains(got, dir) {
		t.Errorf("pathprefixdir = %q, missing %s", got, dir)
	}
}

func TestScript_Errors(t *testing.T) {
	x := ir.NewParam("x", ir.String)

	tests := []struct {
		text string
		want error
	}{
		{`let("a")`, diag.ErrFunctionArgumentCount},
		{`let(x, 1) 0`, diag.ErrFunctionArgumentType},
		{`let("a", 1)`, diag.ErrOperandExpected},
		{`$nope + 1`, script.ErrUndefined},
		{`nope`, diag.ErrOperationInvalid},
		{`1 2`, diag.ErrOperandUnexpected},
		{`"open`, diag.ErrGrammarUnknown},
		{`pathcat()`, diag.ErrFunctionArgumentCount},
		{`pathcat(1)`, diag.ErrFunctionArgumentType},
		{`upper(1)`, diag.ErrFunctionArgumentType},
		{`1 + "a"`, diag.ErrOperationInvalid},
		{`(1 + 2`, diag.ErrBracketUnmatched},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := script.Language(new(script.Globals)).Parse(context.Background(), tt.text, x)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func ExampleEval() {
	var g script.Globals

	l := script.Language(&g)

	v, err := script.Eval(context.Background(), l,
		`let("tool", "prex") let("major", 1) $tool .. "-v" .. $major`, nil)
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(v, g.Names())
	// Output: prex-v1 [major tool]
}
