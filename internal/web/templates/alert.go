// Package templates holds the HTML fragments served to HTMX clients.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders an inline error box with the support code.
// All values are HTML-escaped.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<div class="alert alert-error" role="alert"><p class="alert-message">` +
			templ.EscapeString(message) + `</p>`
		if action != "" {
			html += `<p class="alert-action">` + templ.EscapeString(action) + `</p>`
		}
		if code != "" {
			html += `<small class="alert-code">Código: ` + templ.EscapeString(code) + `</small>`
		}
		html += `</div>`
		_, err := io.WriteString(w, html)
		return err
	})
}
