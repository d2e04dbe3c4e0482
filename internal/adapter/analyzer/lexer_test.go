package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchfox/internal/domain"
)

func TestDialect_BraceBalance_IgnoresLiteralsAndComments(t *testing.T) {
	cases := map[string]struct {
		lines []string
		want  int
	}{
		"brace in string":        {[]string{`int x = "a{b"; // }`}, 0},
		"escaped quote":          {[]string{`s = "a\"{"; {`}, 1},
		"char literal":           {[]string{`c = '{';`}, 0},
		"escaped char literal":   {[]string{`c = '\''; {`}, 1},
		"block comment carries":  {[]string{`/* {`, `} */ {`}, 1},
		"line comment resets":    {[]string{`// {`, `{`}, 1},
		"rust lifetime":          {[]string{`fn f<'a>(x: &'a str) {`}, 1},
		"digit separator":        {[]string{`int n = 1'000'000; {`}, 1},
		"quote inside char":      {[]string{`char q = '"'; {`}, 1},
		"string continues":       {[]string{`const char* s = "abc \`, `{ def";`}, 0},
		"unterminated block end": {[]string{`{ /* open`}, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurlyBrace.BraceBalance(tc.lines))
		})
	}
}

func TestDialect_Scan_States(t *testing.T) {
	line := `a "b" 'c' // d`
	scan := CurlyBrace.Scan(line, domain.Code)
	require.Len(t, scan.States, len(line))

	assert.Equal(t, domain.Code, scan.States[0])
	assert.Equal(t, domain.InString, scan.States[3])
	assert.Equal(t, domain.InChar, scan.States[7])
	assert.Equal(t, domain.InLineComment, scan.States[len(line)-1])
	assert.Equal(t, domain.InLineComment, scan.End)
	assert.Equal(t, domain.Code, scan.Carry)
}

func TestDialect_Scan_Carry(t *testing.T) {
	scan := CurlyBrace.Scan(`x = 1; /* start`, domain.Code)
	assert.Equal(t, domain.InBlockComment, scan.Carry)

	scan = CurlyBrace.Scan(`still comment */ y {`, scan.Carry)
	assert.Equal(t, domain.Code, scan.Carry)
	assert.Equal(t, domain.Code, scan.States[len(scan.States)-1])

	scan = CurlyBrace.Scan(`s = "abc \`, domain.Code)
	assert.Equal(t, domain.InString, scan.Carry)

	scan = CurlyBrace.Scan(`s = "abc`, domain.Code)
	assert.Equal(t, domain.InString, scan.End)
	assert.Equal(t, domain.Code, scan.Carry)
}

func TestDialect_Scan_Unsupported(t *testing.T) {
	for _, line := range []string{
		`auto s = R"(text)";`,
		`auto s = u8R"x(text)x";`,
		`let s = r"text";`,
		`let s = r#"text"#;`,
		"let s = `${a}{`;",
	} {
		assert.True(t, CurlyBrace.Scan(line, domain.Code).Unsupported, line)
	}
	assert.False(t, CurlyBrace.Scan(`auto s = "R";`, domain.Code).Unsupported)
	assert.False(t, CurlyBrace.Scan(`foo(bar, "x")`, domain.Code).Unsupported)
}

func TestDialect_Scan_Idempotent(t *testing.T) {
	line := `if (c == '}') { s = "{\"}"; } /* x */ // y`
	first := CurlyBrace.Scan(line, domain.Code)
	second := CurlyBrace.Scan(line, domain.Code)
	assert.Equal(t, first, second)
}

func TestLineScan_CodeOnly(t *testing.T) {
	line := `f("{", '}'); // {`
	code := CurlyBrace.Scan(line, domain.Code).CodeOnly(line)
	assert.Len(t, code, len(line))
	assert.NotContains(t, code, "{")
	assert.NotContains(t, code, "}")
	assert.Contains(t, code, "f(")
}

func TestDialect_ForPath_SingleQuotedStrings(t *testing.T) {
	line := `x = '{ }'; y = 'it\'s {';`
	js := CurlyBrace.ForPath("dom/a.mjs")
	assert.True(t, js.CharQuoteStrings)
	assert.Zero(t, js.BraceBalance([]string{line}))
	assert.Equal(t, domain.InChar, js.Scan(line, domain.Code).States[5])

	rust := CurlyBrace.ForPath("lib.rs")
	assert.False(t, rust.CharQuoteStrings)
	assert.Equal(t, 1, rust.BraceBalance([]string{`fn f<'a>(x: &'a str) {`}))
}

func TestLanguageForPath(t *testing.T) {
	for _, p := range []string{"dom/base/Element.cpp", "x.h", "lib.rs", "a.mjs", "b.tsx", "Foo.java", "Bar.webidl", "PFoo.ipdl", ""} {
		lang, ok := LanguageForPath(p)
		assert.True(t, ok, p)
		assert.Equal(t, domain.CurlyBraceGeneric, lang, p)
	}
	for _, p := range []string{"setup.py", "Makefile", "README.md", "moz.build"} {
		_, ok := LanguageForPath(p)
		assert.False(t, ok, p)
	}
}
