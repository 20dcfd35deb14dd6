package files

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

// TemplatePathParser renders filenames from the configured rename template.
type TemplatePathParser struct {
	config *config.Manager
}

// NewTemplatePathParser creates a new TemplatePathParser.
func NewTemplatePathParser(cfg *config.Manager) *TemplatePathParser {
	return &TemplatePathParser{config: cfg}
}

// RenderFilename renders the configured template against a book's
// metadata. The result carries no extension; the caller keeps the file's.
func (p *TemplatePathParser) RenderFilename(md *book.Metadata) (string, error) {
	return p.renderTemplate(p.config.Get().Rename.Template, md)
}

var reFunc = regexp.MustCompile(`%(\w+)\{([^{}]+)\}`)
var reVal = regexp.MustCompile(`\$(\w+)`)

func (p *TemplatePathParser) renderTemplate(template string, md *book.Metadata) (string, error) {
	var renderErr error
	// Innermost functions match first; looping resolves nested calls like
	// %if{$series,%asciify{$series}} from the inside out.
	rendered := template
	for i := 0; i < 8; i++ {
		next := p.renderFuncs(rendered, md, &renderErr)
		if next == rendered {
			break
		}
		rendered = next
	}
	if renderErr != nil {
		return "", renderErr
	}

	out, err := p.renderValues(rendered, md)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *TemplatePathParser) renderFuncs(template string, md *book.Metadata, renderErr *error) string {
	return reFunc.ReplaceAllStringFunc(template, func(raw string) string {
		parts := reFunc.FindStringSubmatch(raw)
		if len(parts) != 3 {
			return raw
		}
		funcName := parts[1]
		argTemplate := parts[2]

		switch funcName {
		case "asciify":
			argValue, err := p.renderValues(argTemplate, md)
			if err != nil {
				*renderErr = err
				return ""
			}
			return unidecode.Unidecode(argValue)
		case "if":
			// %if{condition,true_value} or %if{condition,true_value,false_value}
			args := strings.SplitN(argTemplate, ",", 3)
			if len(args) < 2 {
				return ""
			}
			condition, err := p.renderValues(args[0], md)
			if err != nil {
				*renderErr = err
				return ""
			}
			branch := ""
			if condition != "" && condition != "0" && condition != "false" {
				branch = args[1]
			} else if len(args) > 2 {
				branch = args[2]
			}
			val, err := p.renderValues(branch, md)
			if err != nil {
				*renderErr = err
				return ""
			}
			return val
		default:
			return raw
		}
	})
}

func (p *TemplatePathParser) renderValues(template string, md *book.Metadata) (string, error) {
	rendered := reVal.ReplaceAllStringFunc(template, func(raw string) string {
		var val string
		switch strings.TrimPrefix(raw, "$") {
		case "title":
			val = book.Val(md.Title)
		case "subtitle":
			val = book.Val(md.Subtitle)
		case "author":
			val = book.Val(md.Author)
		case "narrator":
			val = book.Val(md.Narrator)
		case "series":
			val = book.Val(md.Series)
		case "sequence":
			val = strings.TrimSpace(book.Val(md.Sequence))
		case "year":
			val = book.Val(md.Year)
		default:
			return raw
		}
		return SanitizeComponent(val)
	})
	return rendered, nil
}

// SanitizeComponent strips the characters that break paths on common
// filesystems from one path component.
func SanitizeComponent(val string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", " -",
		"*", "",
		"?", "",
		"\"", "'",
		"<", "",
		">", "",
		"|", "-",
	)
	return strings.TrimSpace(replacer.Replace(val))
}
