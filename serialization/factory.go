package serialization

// NewDefaultSerializerRegistry creates a registry with the json and yaml
// serializers, json being the default.
func NewDefaultSerializerRegistry() *SerializerRegistry {
	registry := NewSerializerRegistry()
	_ = registry.RegisterSerializer(NewJSONSerializer())
	_ = registry.RegisterSerializer(NewYAMLSerializer())
	return registry
}

var defaultRegistry = NewDefaultSerializerRegistry()

// GetSerializer returns a serializer by name from the default registry
func GetSerializer(name string) (Serializer, error) {
	return defaultRegistry.GetSerializer(name)
}

// Serialize serializes data using the specified format
func Serialize(data interface{}, format string) ([]byte, error) {
	serializer, err := defaultRegistry.GetSerializer(format)
	if err != nil {
		return nil, err
	}
	return serializer.Serialize(data)
}

// GetSupportedFormats returns all supported serialization formats
func GetSupportedFormats() []string {
	return defaultRegistry.GetSupportedFormats()
}

// IsFormatSupported checks if a format is supported
func IsFormatSupported(format string) bool {
	return defaultRegistry.IsFormatSupported(format)
}
