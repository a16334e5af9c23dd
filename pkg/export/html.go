package export

import (
	"fmt"
	"strings"

	"github.com/russross/blackfriday"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
h1 { color: #1f51ff; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; font-style: italic; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders one view as a standalone HTML page by converting its markdown
// form.
func HTML(docs domain.DocumentSet, view View) ([]byte, error) {
	md, err := Markdown(docs, view)
	if err != nil {
		return nil, err
	}

	body := blackfriday.MarkdownCommon([]byte(md))
	page := fmt.Sprintf(htmlShell, htmlEscape(view.Title()), body)
	return []byte(page), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
