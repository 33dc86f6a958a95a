package filter

import (
	"strings"
	"testing"

	"i18n-refactor/internal/phpscan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// include runs the filter on the first literal in src whose content is want.
func include(t *testing.T, f *Filter, src, want string) bool {
	t.Helper()
	prepared := f.Prepare(src, Whole(src))
	for _, lit := range phpscan.Literals(src, 0, len(src)) {
		if lit.Content == want {
			return f.Include(prepared, Candidate{
				Text:  strings.TrimSpace(lit.Content),
				Start: lit.Start,
				End:   lit.End,
				Code:  true,
			})
		}
	}
	require.Failf(t, "literal not found", "%q not in %q", want, src)
	return false
}

func TestValid(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		minBytes int
		want     bool
	}{
		{"empty", "", 2, false},
		{"blank", "   ", 2, false},
		{"escape only", `\n\t`, 2, false},
		{"escaped quote only", `\'`, 2, false},
		{"too short ascii", "Hi", 4, false},
		{"short non-ascii exempt", "こ", 4, true},
		{"two char non-ascii", "こん", 4, true},
		{"long enough ascii", "Hello", 4, true},
		{"regex group", "(?:foo|bar)", 2, false},
		{"regex class", `\d+ items`, 2, false},
		{"anchored class", "^[a-z]+$", 2, false},
		{"leading hash", "#fff", 2, false},
		{"leading slash", "/api/users", 2, false},
		{"leading dollar", "$price", 2, false},
		{"leading dot", ".btn", 2, false},
		{"leading at", "@media", 2, false},
		{"leading backtick", "`cmd`", 2, false},
		{"digits and symbols", "12:30 - 45%", 2, false},
		{"dimensions keep letter", "1920x1080", 2, true},
		{"sentence", "Welcome, user!", 2, true},
		{"emoji", "👍", 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.text, tt.minBytes))
		})
	}
}

func TestValid_ShortNonASCIIArrayKeyStillContextChecked(t *testing.T) {
	f := New()
	// The shape rules pass, the array-key rule then rejects it.
	assert.False(t, include(t, f, `$labels['名'] = 1;`, "名"))
}

func TestInclude_ArrayKeys(t *testing.T) {
	f := New()

	assert.False(t, include(t, f, `$name = $array['user_name'];`, "user_name"))
	assert.False(t, include(t, f, `$v = $obj->data[ 'user_name' ];`, "user_name"))
	assert.False(t, include(t, f, `$a = ['title' => 'Dashboard'];`, "title"))
	assert.True(t, include(t, f, `$a = ['title' => 'Dashboard'];`, "Dashboard"))
	assert.False(t, include(t, f, "$a = [\n    'title'\n        => 'Dashboard',\n];", "title"))
	assert.True(t, include(t, f, `$a['key'] = 'Saved successfully';`, "Saved successfully"))
}

func TestInclude_CallSites(t *testing.T) {
	f := New()

	tests := []struct {
		name string
		src  string
		lit  string
		want bool
	}{
		{"translation helper", `return __('auth.failed');`, "auth.failed", false},
		{"log facade", `Log::error('Connection failed: ' . $e);`, "Connection failed: ", false},
		{"echo statement", `echo "user_name";`, "user_name", false},
		{"standalone statement", `"Welcome, user!";`, "Welcome, user!", true},
		{"assignment", `$message = 'Profile updated';`, "Profile updated", true},
		{"query builder static", `User::where('status', 'active')->get();`, "active", false},
		{"query builder instance", `$q->orderBy('created_at');`, "created_at", false},
		{"command output", `$this->info('Import finished');`, "Import finished", false},
		{"config helper", `$n = config('app.name');`, "app.name", false},
		{"regex function", `preg_match('/Order \d+/', $s);`, `/Order \d+/`, false},
		{"builtin", `if (in_array('Admin User', $roles)) {}`, "Admin User", false},
		{"blade lang directive", `@lang('Sign in')`, "Sign in", false},
		{"longer identifier not matched", `$x = mydate('Tuesday');`, "Tuesday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, include(t, f, tt.src, tt.lit))
		})
	}
}

func TestInclude_MultiLineCallZone(t *testing.T) {
	f := New()
	src := "Log::warning(\n    'Payment declined for order',\n    ['id' => $id]\n);\n$ok = 'Thanks for your order';"

	assert.False(t, include(t, f, src, "Payment declined for order"))
	assert.True(t, include(t, f, src, "Thanks for your order"))
}

func TestInclude_FunctionDefinitionZones(t *testing.T) {
	f := New()
	src := `class User {
    protected function casts(): array
    {
        return ['settings' => 'Array Object', 'name' => 'Plain String'];
    }

    public function rules(): array {
        return ['email' => 'Required Email'];
    }

    public function casts(): array {
        return ['x' => 'Public Cast Value'];
    }

    public function label(): string {
        return 'Member since';
    }
}`

	assert.False(t, include(t, f, src, "Plain String"))
	assert.False(t, include(t, f, src, "Required Email"))
	assert.True(t, include(t, f, src, "Public Cast Value"))
	assert.True(t, include(t, f, src, "Member since"))
}

func TestCallSites_ZonesAbstractMethod(t *testing.T) {
	cs := DefaultCallSites()
	src := "abstract protected function casts(): array;\n$x = ['a' => 'b'];"
	assert.Empty(t, cs.Zones(src, Whole(src)))
}

func TestCallSites_Extra(t *testing.T) {
	cs, err := NewCallSites([]string{"Notify::send"}, nil)
	require.NoError(t, err)

	f := New(WithCallSites(cs))
	assert.False(t, include(t, f, `Notify::send('Internal key');`, "Internal key"))
}

func TestCallSites_ZonesBoundedBySpan(t *testing.T) {
	cs := DefaultCallSites()
	src := "<p>date (local</p>\n<?php Log::info('Cache warmed'); ?>\n<p>x)</p>"
	block := strings.Index(src, "<?php")
	end := strings.Index(src, "?>") + 2

	zones := cs.Zones(src, phpscan.Ranges{{Start: block, End: end}})
	require.Len(t, zones, 1)
	assert.Equal(t, strings.Index(src, "Log::info"), zones[0].Start)
	assert.Equal(t, strings.Index(src, "); ?>")+1, zones[0].End)

	open := phpscan.Ranges{{Start: block, End: block + len("<?php Log::info('Cache")}}
	assert.Empty(t, cs.Zones(src, open))
}

func TestInclude_ZonesSkipMarkup(t *testing.T) {
	f := New()
	src := `<p>config (advanced)</p>`
	start := strings.Index(src, "config")
	end := start + len("config (advanced)")
	prepared := f.Prepare(src, Whole(src))
	require.True(t, prepared.Zones.Contains(start))

	assert.True(t, f.Include(prepared, Candidate{Text: src[start:end], Start: start, End: end}))
	assert.False(t, f.Include(prepared, Candidate{Text: src[start:end], Start: start, End: end, Code: true}))
}

type stubExcluder map[string]bool

func (s stubExcluder) ShouldExclude(text string) bool { return s[text] }

func TestInclude_Excluder(t *testing.T) {
	f := New(WithExcluder(stubExcluder{"Dashboard": true}))

	assert.False(t, include(t, f, `$t = 'Dashboard';`, "Dashboard"))
	assert.True(t, include(t, f, `$t = 'Settings';`, "Settings"))
}

func TestInclude_MarkupSkipsCodeRules(t *testing.T) {
	f := New()
	src := `<a href="{{ route('home') }}">Home page</a>`
	start := strings.Index(src, "Home page")
	src2 := f.Prepare(src, Whole(src))

	assert.True(t, f.Include(src2, Candidate{Text: "Home page", Start: start, End: start + len("Home page")}))
}

func TestInclude_MinBytesOption(t *testing.T) {
	f := New(WithMinBytes(4))
	assert.False(t, include(t, f, `$t = 'Hi';`, "Hi"))
	assert.True(t, include(t, f, `$t = 'こ';`, "こ"))
}
