package eval

import (
	"strings"

	"github.com/k3a/html2text"

	"github.com/migadu/sievecore/ast"
)

// bodyTextFor applies a body test's :raw/:text/:content transform to
// one decoded MIME part (§4.4). :text converts HTML parts to plain
// text the same way mailhost's plaintext extraction does; :raw and
// :content pass the decoded body through unchanged, since get_body
// already restricted the part set to the requested content-types.
func bodyTextFor(transform ast.Transform, part BodyPart) string {
	switch transform {
	case ast.TransformText:
		if strings.HasPrefix(strings.ToLower(part.ContentType), "text/html") {
			return html2text.HTML2Text(part.Body)
		}
		return part.Body
	default:
		return part.Body
	}
}
