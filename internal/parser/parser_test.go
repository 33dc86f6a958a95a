package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(r *ParseResult) []string {
	out := make([]string, 0, len(r.Texts))
	for _, t := range r.Texts {
		out = append(out, t.Text)
	}
	return out
}

func parseBlade(src string) *ParseResult {
	return NewBladeParser(filter.New()).ParseText("view.blade.php", src)
}

func parsePHP(src string) *ParseResult {
	return NewPHPParser(filter.New()).ParseText("App.php", src)
}

// assertContained checks that every result can be found at its reported
// position in the source.
func assertContained(t *testing.T, src string, r *ParseResult) {
	t.Helper()
	idx := position.NewIndex(src)
	for _, et := range r.Texts {
		off := idx.Offset(et.Line, et.Column)
		require.GreaterOrEqual(t, off, 0, "position of %q", et.Text)
		assert.True(t, strings.HasPrefix(src[off:], et.Text), "%q not at %d:%d", et.Text, et.Line, et.Column)
		assert.Equal(t, position.RuneLen(et.Text), et.Length)
	}
}

func TestCanParse(t *testing.T) {
	blade := NewBladeParser(filter.New())
	php := NewPHPParser(filter.New())

	assert.True(t, blade.CanParse("resources/views/home.blade.php"))
	assert.False(t, blade.CanParse("app/Models/User.php"))
	assert.True(t, php.CanParse("app/Models/User.php"))
	assert.True(t, php.CanParse("app/Models/USER.PHP"))
	assert.False(t, php.CanParse("resources/views/home.blade.php"))
	assert.False(t, php.CanParse("README.md"))
}

func TestPHPParser(t *testing.T) {
	src := `<?php
class Greeter {
    public function greet(): string {
        Log::info('greeting user');
        return 'Hello, friend';
    }
}
`
	r := parsePHP(src)
	require.Len(t, r.Texts, 1)
	assert.Equal(t, ExtractedText{Text: "Hello, friend", File: "App.php", Line: 5, Column: 16, Length: 13}, r.Texts[0])
	assert.Equal(t, "php", r.FileType)
	assertContained(t, src, r)
}

func TestPHPParser_TrimsAndCountsRunes(t *testing.T) {
	src := `$x = '  Padded text  '; $a = 'ä'; $b = 'Grüße';`
	r := parsePHP(src)
	require.Len(t, r.Texts, 3)

	assert.Equal(t, "Padded text", r.Texts[0].Text)
	assert.Equal(t, 8, r.Texts[0].Column)
	assert.Equal(t, 11, r.Texts[0].Length)

	assert.Equal(t, "ä", r.Texts[1].Text)
	assert.Equal(t, "Grüße", r.Texts[2].Text)
	assert.Equal(t, 5, r.Texts[2].Length)
	assertContained(t, src, r)
}

func TestPHPParser_CallSitesAndKeys(t *testing.T) {
	src := `<?php
$name = $array['user_name'];
echo "user_name";
"Welcome, user!";
return __('auth.failed');
$rules = ['email' => 'required|email'];
`
	r := parsePHP(src)
	assert.Equal(t, []string{"Welcome, user!", "required|email"}, texts(r))
}

func TestBladeParser_OpenEndedPHPBlock(t *testing.T) {
	src := "<div>Title</div>\n<?php\n$x = 'Hidden';\n<p>Not markup</p>"
	r := parseBlade(src)

	assert.Equal(t, []string{"Title", "Hidden"}, texts(r))
	assert.Equal(t, 1, r.Texts[0].Line)
	assert.Equal(t, 5, r.Texts[0].Column)
	assert.Equal(t, 3, r.Texts[1].Line)
	assert.Equal(t, 6, r.Texts[1].Column)
	assertContained(t, src, r)
}

func TestBladeParser_HelperNamesInMarkup(t *testing.T) {
	src := "<th>date (local)</th>\n" +
		"<span title=\"info (beta)\">Beta</span>\n" +
		"<p>Pay with (card</p>\n" +
		"<p>Welcome back</p>\n" +
		"<?php $x = 'Inside php'; ?>\n" +
		"<p>Closing note)</p>\n"
	r := parseBlade(src)

	assert.Equal(t, []string{
		"date (local)", "info (beta)", "Beta", "Pay with (card",
		"Welcome back", "Inside php", "Closing note)",
	}, texts(r))
	assertContained(t, src, r)
}

func TestBladeParser_UnclosedCallStaysInBlock(t *testing.T) {
	src := "<?php $d = date('Y-m'; ?>\n<p>After the block</p>\n<?php $msg = 'Order shipped'; ?>\n<p>See note)</p>"
	r := parseBlade(src)
	assert.Equal(t, []string{"After the block", "Order shipped", "See note)"}, texts(r))
}

func TestBladeParser_InlinePHPDirective(t *testing.T) {
	src := "@php($title = 'Dashboard')\n<h1>Shown below</h1>\n"
	r := parseBlade(src)
	assert.Equal(t, []string{"Dashboard", "Shown below"}, texts(r))
	assertContained(t, src, r)
}

func TestBladeParser_TranslationAndEchoesExcluded(t *testing.T) {
	src := `<h1>{{ __('Welcome back') }}</h1>
<p>{{ $user->name }}</p>
<p>{!! trans('messages.intro') !!}</p>
<span>@lang('Sign in')</span>
<p>Real text</p>`
	r := parseBlade(src)
	assert.Equal(t, []string{"Real text"}, texts(r))
}

func TestBladeParser_Attributes(t *testing.T) {
	src := `<form>
  <input type="text" placeholder="Enter your email">
  <img src="/logo.png" alt="{{ $alt }}">
  <div data-title="Card heading"></div>
  <button title='Close dialog' aria-label="Close">x</button>
</form>`
	r := parseBlade(src)

	assert.ElementsMatch(t, []string{"Enter your email", "Card heading", "Close dialog", "Close"}, texts(r))
	assertContained(t, src, r)
}

func TestBladeParser_ScriptLiterals(t *testing.T) {
	src := `<script>
  const msg = 'Saved successfully';
  console.log('debug only');
  $('#btn').text('Click me');
  const who = '{{ $user->name }}';
</script>
<style>.x:before { content: 'Hello there'; }</style>`
	r := parseBlade(src)

	assert.Equal(t, []string{"Saved successfully"}, texts(r))
	assert.Equal(t, 2, r.Texts[0].Line)
	assertContained(t, src, r)
}

func TestBladeParser_CommentsBlanked(t *testing.T) {
	src := `{{-- <p>Hidden note</p> --}}<!-- Old title --><p>Visible</p>`
	r := parseBlade(src)

	require.Equal(t, []string{"Visible"}, texts(r))
	assert.Equal(t, strings.Index(src, "Visible"), r.Texts[0].Column)
}

func TestBladeParser_MultiLineTextNode(t *testing.T) {
	src := "<p>\n    Hello there\n    kind world\n</p>"
	r := parseBlade(src)

	require.Len(t, r.Texts, 2)
	assert.Equal(t, ExtractedText{Text: "Hello there", File: "view.blade.php", Line: 2, Column: 4, Length: 11}, r.Texts[0])
	assert.Equal(t, ExtractedText{Text: "kind world", File: "view.blade.php", Line: 3, Column: 4, Length: 10}, r.Texts[1])
}

func TestBladeParser_Entities(t *testing.T) {
	src := `<p>Terms &amp; Conditions</p>`
	r := parseBlade(src)
	assert.Equal(t, []string{"Terms &amp; Conditions"}, texts(r))
	assertContained(t, src, r)
}

func TestBladeParser_Directives(t *testing.T) {
	src := "@if($user->isAdmin('Super Admin'))\n<p>Admin area</p>\n@endif\n@php $title = 'Dashboard'; @endphp"
	r := parseBlade(src)
	assert.Equal(t, []string{"Admin area", "Dashboard"}, texts(r))
	assertContained(t, src, r)
}

func TestBladeParser_EveryOccurrence(t *testing.T) {
	src := `<p>Save</p><button>Save</button><p>Save changes</p>`
	r := parseBlade(src)

	assert.Equal(t, []string{"Save", "Save", "Save changes"}, texts(r))
	assert.Equal(t, 3, r.Texts[0].Column)
	assert.Equal(t, strings.Index(src, "Save</button>"), r.Texts[1].Column)
	assertContained(t, src, r)
}

func TestBladeParser_Idempotent(t *testing.T) {
	src := `<div title="Profile">
  <h2>Account settings</h2>
  <?php $hint = 'Change your password'; ?>
  <script>var label = "Remember me";</script>
</div>`
	first := parseBlade(src)
	second := parseBlade(src)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Profile", "Account settings", "Change your password", "Remember me"}, texts(first))
	assertContained(t, src, first)
}

func TestParse_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.blade.php")
	require.NoError(t, os.WriteFile(path, []byte("<h1>Home page</h1>\n"), 0o644))

	r, err := NewBladeParser(filter.New()).Parse(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.FilePath)
	assert.Equal(t, []string{"Home page"}, texts(r))
	assert.Equal(t, "<h1>Home page</h1>", r.Source.Line(1))
}

func TestParse_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.php")
	require.NoError(t, os.WriteFile(path, []byte{'<', '?', 0xff, 0xfe}, 0o644))

	_, err := NewPHPParser(filter.New()).Parse(path)
	assert.Error(t, err)
}

func TestDirectiveZones(t *testing.T) {
	src := `a {{ __('x') }} b @if($a) c {{ $v }} d {!! $raw !!} e @lang('y') f`
	zones := DirectiveZones(src)

	for _, word := range []string{" a ", " b ", " c ", " d ", " e ", " f"} {
		i := strings.Index(" "+src, word)
		require.GreaterOrEqual(t, i, 0)
		assert.False(t, zones.Contains(i), "%q should be outside zones", word)
	}
	for _, inside := range []string{"__(", "($a)", "$v", "$raw", "lang("} {
		assert.True(t, zones.Contains(strings.Index(src, inside)), "%q should be excluded", inside)
	}
}

func TestDirectiveZones_Unclosed(t *testing.T) {
	src := "<p>{{ $name </p><p>Tail</p>"
	zones := DirectiveZones(src)
	assert.True(t, zones.Contains(strings.Index(src, "Tail")))
}

func TestBlankComments(t *testing.T) {
	src := "x{{-- a\nb --}}y<!-- c -->z"
	got := BlankComments(src)
	assert.Len(t, got, len(src))
	assert.Equal(t, "x"+strings.Repeat(" ", 6)+"\n"+strings.Repeat(" ", 6)+"y"+strings.Repeat(" ", 10)+"z", got)
}
