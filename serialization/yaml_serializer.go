package serialization

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// YAMLSerializer writes YAML documents.
type YAMLSerializer struct {
	indent int
}

// NewYAMLSerializer creates a YAML serializer indenting by two spaces.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{indent: 2}
}

// Serialize converts data to a YAML document.
func (ys *YAMLSerializer) Serialize(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(ys.indent)
	if err := enc.Encode(data); err != nil {
		return nil, NewSerializationError("yaml", "serialize", err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, NewSerializationError("yaml", "serialize", err.Error())
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a YAML document into v.
func (ys *YAMLSerializer) Deserialize(data []byte, v interface{}) error {
	if len(data) == 0 {
		return NewSerializationError("yaml", "deserialize", "data is empty")
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return NewSerializationError("yaml", "deserialize", err.Error())
	}
	return nil
}

// GetName returns the name of the serializer
func (ys *YAMLSerializer) GetName() string {
	return "yaml"
}
