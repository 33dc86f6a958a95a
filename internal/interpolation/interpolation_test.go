package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtect(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		original []string
	}{
		{"laravel", "Welcome, :name!", "Welcome, {{var_1}}!", []string{":name"}},
		{"several", ":count items for :user", "{{var_1}} items for {{var_2}}", []string{":count", ":user"}},
		{"positional", "Page {0} of {1}", "Page {{var_1}} of {{var_2}}", []string{"{0}", "{1}"}},
		{"named brace", "Hello {name}", "Hello {{var_1}}", []string{"{name}"}},
		{"printf", "%s has %d points", "{{var_1}} has {{var_2}} points", []string{"%s", "%d"}},
		{"argnum", "%1$s and %2$s", "{{var_1}} and {{var_2}}", []string{"%1$s", "%2$s"}},
		{"percent", "100%% done", "100{{var_1}} done", []string{"%%"}},
		{"time is not a placeholder", "Opens at 12:30", "Opens at 12:30", nil},
		{"plain", "Save changes", "Save changes", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mappings := Protect(tt.input)
			assert.Equal(t, tt.want, got)
			var originals []string
			for _, m := range mappings {
				originals = append(originals, m.Original)
			}
			assert.Equal(t, tt.original, originals)
		})
	}
}

func TestRestore(t *testing.T) {
	_, mappings := Protect("Hello :name, you have %d messages")
	assert.Equal(t, "こんにちは :name さん、%d 件のメッセージがあります",
		Restore("こんにちは {{var_1}} さん、{{var_2}} 件のメッセージがあります", mappings))
}

func TestMissing(t *testing.T) {
	_, mappings := Protect(":a and :b")
	assert.Equal(t, []string{":b"}, Missing("{{var_1}} et", mappings))
	assert.Empty(t, Missing("{{var_2}} {{var_1}}", mappings))
}
