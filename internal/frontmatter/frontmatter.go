// Package frontmatter splits YAML frontmatter from a source document and
// decodes the keys the renderer understands.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Header is the decoded frontmatter of one source document.
//
// Unknown keys are ignored. Links and Variables feed the per-document tables
// of the render context; Labels are extra anchor names registered in metas.
type Header struct {
	Title     string            `yaml:"title"`
	Links     map[string]string `yaml:"links"`
	Variables map[string]string `yaml:"variables"`
	Labels    []string          `yaml:"labels"`
}

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and body
// is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter at EOF without trailing newline is still valid.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Decode parses raw YAML frontmatter (without delimiters) into a Header.
func Decode(frontmatter []byte) (Header, error) {
	var h Header
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return h, nil
	}
	if err := yaml.Unmarshal(frontmatter, &h); err != nil {
		return Header{}, fmt.Errorf("decode frontmatter: %w", err)
	}
	return h, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
