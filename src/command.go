package skim

import (
	"strconv"
	"strings"
)

// expandContext carries everything the placeholder syntax can reference
type expandContext struct {
	query     string
	cmdQuery  string
	current   *Item
	selected  []*Item
	delimiter Delimiter
	stripAnsi bool
}

// quoteEntry wraps a value in single quotes with embedded quotes escaped,
// the only quoting the shell cannot reinterpret
func quoteEntry(entry string) string {
	return "'" + strings.ReplaceAll(entry, "'", `'\''`) + "'"
}

func escapeArg(s string, quote bool) string {
	s = strings.ReplaceAll(s, "\x00", `\0`)
	if quote {
		return quoteEntry(s)
	}
	return s
}

// expandCommand substitutes the {...} placeholders in a command template.
// One pass over the template; a brace group that parses as no known
// placeholder is emitted literally.
//
//	{}       focused item's output, shell-quoted
//	{q} {cq} query / command query
//	{n}      focused item's insertion index
//	{+}      outputs of the selection (or the focused item), space-joined
//	{+n}     indices of the above
//	{+:SEP}  custom separator, the whole expansion quoted as one word
//	{2} {1..3} {..2} {-1}  field slices by the delimiter
func expandCommand(template string, ctx *expandContext) string {
	var out strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '\\' && i+1 < len(template) && template[i+1] == '{' {
			out.WriteByte('{')
			i++
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			continue
		}
		closing := strings.IndexByte(template[i:], '}')
		if closing < 0 {
			out.WriteString(template[i:])
			break
		}
		content := template[i+1 : i+closing]
		if expanded, ok := expandPlaceholder(content, ctx); ok {
			out.WriteString(expanded)
		} else {
			out.WriteString(template[i : i+closing+1])
		}
		i += closing
	}
	return out.String()
}

func expandPlaceholder(content string, ctx *expandContext) (string, bool) {
	currentText := ""
	if ctx.current != nil {
		currentText = ctx.current.AsString(ctx.stripAnsi)
	}

	switch content {
	case "":
		return escapeArg(currentText, true), true
	case "q":
		return escapeArg(ctx.query, true), true
	case "cq":
		return escapeArg(ctx.cmdQuery, true), true
	case "n":
		if ctx.current == nil {
			return "", true
		}
		return strconv.Itoa(int(ctx.current.Index())), true
	}

	if strings.HasPrefix(content, "+") {
		return expandPlus(content, ctx, currentText), true
	}

	// Field slice of the focused item
	ranges, ok := splitNth(content)
	if !ok {
		return "", false
	}
	tokens := Tokenize(currentText, ctx.delimiter)
	sliced := Transform(tokens, ranges)
	sliced = StripLastDelimiter(sliced, ctx.delimiter)
	return escapeArg(strings.TrimSpace(sliced), true), true
}

// expandPlus handles {+}, {+n}, {+:SEP} and {+n:SEP}: the selection when it
// is non-empty, the focused item otherwise
func expandPlus(content string, ctx *expandContext, currentText string) string {
	body := content[1:]
	byIndex := strings.HasPrefix(body, "n")
	if byIndex {
		body = body[1:]
	}

	sep := " "
	quoteIndividually := true
	if strings.HasPrefix(body, ":") {
		sep = body[1:]
		quoteIndividually = false
	}

	value := func(item *Item) string {
		if byIndex {
			return strconv.Itoa(int(item.Index()))
		}
		return item.AsString(ctx.stripAnsi)
	}

	parts := []string{}
	for _, item := range ctx.selected {
		parts = append(parts, escapeArg(value(item), quoteIndividually))
	}
	if len(parts) == 0 {
		if ctx.current == nil {
			return ""
		}
		return escapeArg(value(ctx.current), true)
	}

	joined := strings.Join(parts, sep)
	if !quoteIndividually {
		return quoteEntry(joined)
	}
	return joined
}
