// Package serialization encodes command results for machine consumption.
package serialization

import (
	"fmt"
	"sort"
	"sync"

	"maxfmt/errors"
)

// Serializer converts values to and from one wire format.
type Serializer interface {
	// Serialize encodes data.
	Serialize(data interface{}) ([]byte, error)

	// Deserialize decodes data into the value pointed to by v.
	Deserialize(data []byte, v interface{}) error

	// GetName returns the format name used on the command line.
	GetName() string
}

// SerializationError represents an error that occurred during serialization
type SerializationError struct {
	Operation string
	Message   string
	Format    string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("[%s serialization error] %s: %s", e.Format, e.Operation, e.Message)
}

// NewSerializationError creates a new serialization error
func NewSerializationError(format, operation, message string) *SerializationError {
	return &SerializationError{
		Format:    format,
		Operation: operation,
		Message:   message,
	}
}

// SerializerRegistry manages serializers by name.
type SerializerRegistry struct {
	serializers       map[string]Serializer
	defaultSerializer string
	mu                sync.RWMutex
}

// NewSerializerRegistry creates an empty registry whose default is json.
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		serializers:       make(map[string]Serializer),
		defaultSerializer: "json",
	}
}

// RegisterSerializer registers a serializer
func (sr *SerializerRegistry) RegisterSerializer(serializer Serializer) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	name := serializer.GetName()
	if _, exists := sr.serializers[name]; exists {
		return fmt.Errorf("serializer '%s' is already registered", name)
	}
	sr.serializers[name] = serializer
	return nil
}

// GetSerializer returns a serializer by name. An empty name selects the
// default.
func (sr *SerializerRegistry) GetSerializer(name string) (Serializer, error) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	if name == "" {
		name = sr.defaultSerializer
	}
	serializer, exists := sr.serializers[name]
	if !exists {
		return nil, errors.NewValidationError(errors.CodeUnknownEncoding,
			fmt.Sprintf("serializer '%s' not found", name)).
			WithContext("supported", sr.namesLocked())
	}
	return serializer, nil
}

// SetDefaultSerializer sets the default serializer
func (sr *SerializerRegistry) SetDefaultSerializer(name string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if _, exists := sr.serializers[name]; !exists {
		return fmt.Errorf("serializer '%s' not found", name)
	}
	sr.defaultSerializer = name
	return nil
}

// GetSupportedFormats returns the registered names, sorted.
func (sr *SerializerRegistry) GetSupportedFormats() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.namesLocked()
}

func (sr *SerializerRegistry) namesLocked() []string {
	names := make([]string, 0, len(sr.serializers))
	for name := range sr.serializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsFormatSupported checks if a format is supported
func (sr *SerializerRegistry) IsFormatSupported(format string) bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	_, exists := sr.serializers[format]
	return exists
}
