// Package manifest reads and updates package manifests (package.json or a
// YAML equivalent). Only the version field is ever written; everything else
// in the file is preserved byte for byte, including formatting and comments.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/carraways/monorel/internal/errors"
)

// Manifest is one loaded package manifest.
type Manifest struct {
	// Path is the manifest file location.
	Path string
	// Name is the package name declared in the manifest, empty if absent.
	Name string
	// Version is the current on-disk version.
	Version string

	raw  []byte
	yaml bool
}

// Load reads and parses the manifest at path. A missing file or a manifest
// without a version field is a configuration error.
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ManifestNotFound(path)
		}
		return nil, errors.WrapWithMessage(err, errors.Config,
			fmt.Sprintf("failed to read manifest %s", path))
	}

	m := &Manifest{Path: path, raw: raw, yaml: isYAMLPath(path)}
	if m.yaml {
		err = m.parseYAML()
	} else {
		err = m.parseJSON()
	}
	if err != nil {
		return nil, err
	}
	if m.Version == "" {
		return nil, errors.ManifestVersionMissing(path)
	}
	return m, nil
}

// WriteVersion updates the manifest's version field on disk, leaving every
// other byte of the file untouched.
func (m *Manifest) WriteVersion(version string) error {
	var updated []byte
	var err error
	if m.yaml {
		updated, err = replaceYAMLVersion(m.raw, version)
	} else {
		updated, err = sjson.SetBytes(m.raw, "version", version)
	}
	if err != nil {
		return errors.WrapWithMessage(err, errors.Config,
			fmt.Sprintf("failed to update version in %s", m.Path))
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(m.Path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(m.Path, updated, mode); err != nil {
		return errors.WrapWithMessage(err, errors.Config,
			fmt.Sprintf("failed to write manifest %s", m.Path))
	}

	m.raw = updated
	m.Version = version
	return nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (m *Manifest) parseJSON() error {
	if !gjson.ValidBytes(m.raw) {
		return errors.NewConfigError(fmt.Sprintf("manifest %s is not valid JSON", m.Path))
	}
	m.Name = gjson.GetBytes(m.raw, "name").String()
	m.Version = gjson.GetBytes(m.raw, "version").String()
	return nil
}

func (m *Manifest) parseYAML() error {
	name, versionNode, err := yamlTopLevel(m.raw)
	if err != nil {
		return errors.WrapWithMessage(err, errors.Config,
			fmt.Sprintf("manifest %s is not valid YAML", m.Path))
	}
	m.Name = name
	if versionNode != nil {
		m.Version = versionNode.Value
	}
	return nil
}

// yamlTopLevel parses a YAML document and returns the top-level name value
// and the version scalar node (nil when absent).
func yamlTopLevel(raw []byte) (string, *yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", nil, err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("top-level YAML node is not a mapping")
	}

	var name string
	var version *yaml.Node
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		switch key.Value {
		case "name":
			name = value.Value
		case "version":
			version = value
		}
	}
	return name, version, nil
}

// replaceYAMLVersion rewrites only the version scalar inside raw, using the
// node's source position so surrounding content (comments, ordering,
// indentation) survives byte for byte. The original quoting style is kept.
func replaceYAMLVersion(raw []byte, version string) ([]byte, error) {
	_, node, err := yamlTopLevel(raw)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("no version field to update")
	}

	lines := strings.SplitAfter(string(raw), "\n")
	if node.Line < 1 || node.Line > len(lines) {
		return nil, fmt.Errorf("version node position out of range")
	}

	line := lines[node.Line-1]
	if node.Column < 1 || node.Column > len(line) {
		return nil, fmt.Errorf("version node position out of range")
	}

	oldToken := yamlScalarToken(node)
	newToken := yamlQuote(version, node.Style)
	prefix := line[:node.Column-1]
	rest := line[node.Column-1:]
	if !strings.HasPrefix(rest, oldToken) {
		return nil, fmt.Errorf("cannot locate version value on line %d", node.Line)
	}

	lines[node.Line-1] = prefix + newToken + rest[len(oldToken):]
	return []byte(strings.Join(lines, "")), nil
}

// yamlScalarToken reconstructs the source text of a simple scalar node.
func yamlScalarToken(node *yaml.Node) string {
	return yamlQuote(node.Value, node.Style)
}

func yamlQuote(value string, style yaml.Style) string {
	switch style {
	case yaml.DoubleQuotedStyle:
		return `"` + value + `"`
	case yaml.SingleQuotedStyle:
		return "'" + value + "'"
	default:
		return value
	}
}
