package serialization

import (
	"encoding/json"
)

// JSONSerializer writes indented JSON.
type JSONSerializer struct {
	indent string
}

// NewJSONSerializer creates a new JSON serializer
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{indent: "  "}
}

// Serialize converts data to JSON bytes followed by a newline.
func (js *JSONSerializer) Serialize(data interface{}) ([]byte, error) {
	jsonData, err := json.MarshalIndent(data, "", js.indent)
	if err != nil {
		return nil, NewSerializationError("json", "serialize", err.Error())
	}
	return append(jsonData, '\n'), nil
}

// Deserialize decodes JSON bytes into v.
func (js *JSONSerializer) Deserialize(data []byte, v interface{}) error {
	if len(data) == 0 {
		return NewSerializationError("json", "deserialize", "data is empty")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewSerializationError("json", "deserialize", err.Error())
	}
	return nil
}

// GetName returns the name of the serializer
func (js *JSONSerializer) GetName() string {
	return "json"
}
