package stadium

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes an .hbs document. Map editors emit JSON with comments and
// trailing commas, so both are stripped before decoding.
func Parse(data []byte) (*Stadium, error) {
	clean, err := stripJSONExtensions(data)
	if err != nil {
		return nil, err
	}
	var s Stadium
	dec := json.NewDecoder(bytes.NewReader(clean))
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("stadium: decode: %w", err)
	}
	return &s, nil
}

// ParseYAML decodes a stadium written in YAML with the same field names.
func ParseYAML(data []byte) (*Stadium, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("stadium: yaml: %w", err)
	}
	quoteColors(&root)
	var doc interface{}
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("stadium: yaml: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("stadium: yaml to json: %w", err)
	}
	var s Stadium
	if err := json.Unmarshal(js, &s); err != nil {
		return nil, fmt.Errorf("stadium: decode: %w", err)
	}
	return &s, nil
}

// quoteColors turns unquoted all-digit colours such as `color: 000000` back
// into the hex strings they were written as.
func quoteColors(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Value == "color" && v.Kind == yaml.ScalarNode && v.Tag == "!!int" {
				v.Tag = "!!str"
			}
		}
	}
	for _, c := range n.Content {
		quoteColors(c)
	}
}

// Load reads a stadium file, choosing the decoder from the extension.
func Load(path string) (*Stadium, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stadium: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Encode produces the canonical JSON form sent to the host.
func Encode(s *Stadium) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("stadium: encode: %w", err)
	}
	return b, nil
}

// EncodeIndent is Encode for humans.
func EncodeIndent(s *Stadium) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("stadium: encode: %w", err)
	}
	return b, nil
}

// EncodeYAML converts through the JSON form so the polymorphic fields keep
// their file representation.
func EncodeYAML(s *Stadium) ([]byte, error) {
	js, err := Encode(s)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// stripJSONExtensions removes // and /* */ comments and trailing commas
// outside of string literals.
func stripJSONExtensions(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(data) {
					i++
					out = append(out, data[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := bytes.Index(data[i+2:], []byte("*/"))
			if end < 0 {
				return nil, fmt.Errorf("stadium: unterminated block comment")
			}
			i += end + 3
			out = append(out, ' ')
		case c == ']' || c == '}':
			out = dropTrailingComma(out)
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	if inString {
		return nil, fmt.Errorf("stadium: unterminated string")
	}
	return out, nil
}

func dropTrailingComma(out []byte) []byte {
	j := len(out) - 1
	for j >= 0 && isSpace(out[j]) {
		j--
	}
	if j >= 0 && out[j] == ',' {
		return append(out[:j], out[j+1:]...)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
