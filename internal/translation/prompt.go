package translation

import (
	"fmt"
	"sort"
	"strings"
)

const systemMessage = "You are a translation assistant for Laravel i18n. Reply only with <response> blocks."

// Request is one string sent to the model. Text may contain {{var_N}}
// placeholders in place of interpolation variables.
type Request struct {
	Text      string
	Reference string
}

// Term is a glossary entry with its approved translations by language code.
type Term struct {
	Name         string
	Translations map[string]string
}

// Approved is a previously accepted translation of a similar string.
type Approved struct {
	Source     string
	Lang       string
	Translated string
}

// PromptContext carries optional knowledge added to a prompt.
type PromptContext struct {
	Glossary     []Term
	Approved     []Approved
	Placeholders bool
}

// PromptBuilder constructs translation prompts.
type PromptBuilder struct {
	Summary string
}

// NewPromptBuilder creates a prompt builder. summary describes the
// application and may be empty.
func NewPromptBuilder(summary string) *PromptBuilder {
	return &PromptBuilder{Summary: strings.TrimSpace(summary)}
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXML(s string) string { return xmlEscaper.Replace(s) }

// Build renders the prompt for a batch of requests.
func (pb *PromptBuilder) Build(reqs []Request, langs []Language, pc PromptContext) string {
	tags := make([]string, len(langs))
	descs := make([]string, len(langs))
	for i, l := range langs {
		tags[i] = "<" + l.Code + ">"
		descs[i] = fmt.Sprintf("   - <%s>: %s", l.Code, l.Description)
	}

	var sb strings.Builder
	sb.WriteString("You are a professional translator for Laravel web applications.\n\n")

	if pb.Summary != "" {
		fmt.Fprintf(&sb, `# Application Context
%s

Consider this context when:
- Choosing terminology (use domain-specific vocabulary)
- Interpreting ambiguous strings (e.g., "post" could be blog post, mail post, or HTTP POST)
- Determining translation necessity (technical vs user-facing)
- Maintaining consistency with application domain

`, pb.Summary)
	}

	fmt.Fprintf(&sb, `# Task
Translate extracted strings for internationalization (i18n).

For each <request>:
1. Examine <reference> to understand the code context (HTML structure, attributes, surrounding code)
2. Determine if the text is user-facing or technical
3. If user-facing: provide natural translations in %s tags
4. If technical (CSS class, data attribute, code identifier, dimension, etc.): return <translations>false</translations>

# Guidelines
- User-facing: button labels, messages, titles, descriptions, error messages
- Technical: class names (btn-primary, nav-item), IDs, data-* attributes, dimensions (1920x1080), hex colors (#fff)
- Consider HTML structure: text in <p>, <h1>, <button> is usually user-facing; values in class/id/data-* are usually technical
- Preserve tone and formality appropriate for the application domain
- Use natural, idiomatic expressions in target languages
`, strings.Join(tags, " and "))
	if pc.Placeholders {
		sb.WriteString("- Copy placeholders like {{var_1}} into every translation exactly as they appear\n")
	}
	sb.WriteString("\n")

	if len(pc.Glossary) > 0 {
		sb.WriteString("# Glossary\nUse these approved terms consistently:\n")
		for _, t := range pc.Glossary {
			codes := make([]string, 0, len(t.Translations))
			for code := range t.Translations {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			var parts []string
			for _, code := range codes {
				parts = append(parts, fmt.Sprintf("<%s>%s</%s>", code, escapeXML(t.Translations[code]), code))
			}
			fmt.Fprintf(&sb, "- %s: %s\n", escapeXML(t.Name), strings.Join(parts, " "))
		}
		sb.WriteString("\n")
	}

	if len(pc.Approved) > 0 {
		sb.WriteString("# Previously approved translations\n")
		for _, a := range pc.Approved {
			fmt.Fprintf(&sb, "- %q (%s): %s\n", a.Source, a.Lang, a.Translated)
		}
		sb.WriteString("\n")
	}

	for _, r := range reqs {
		fmt.Fprintf(&sb, "<request>\n<text>%s</text>\n<reference>\n%s\n</reference>\n</request>\n\n",
			escapeXML(r.Text), escapeXML(r.Reference))
	}

	fmt.Fprintf(&sb, `# Response Format
Return one <response> block for each <request>, maintaining the same order.
Each response must include the exact original <text> for matching.

Example for user-facing text:
<response>
<text>original text here</text>
<translations>
%s
</translations>
</response>

Example for technical/non-translatable text:
<response>
<text>btn-primary</text>
<translations>false</translations>
</response>

IMPORTANT:
- Return ONLY <response> blocks, no additional commentary
- The <text> in each response must exactly match the <text> from the request
- Maintain the order of requests in your responses
`, strings.Join(descs, "\n"))

	return sb.String()
}
