package connectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/systmms/secretwire/pkg/connector"
)

// FileConnector reads secret values from a directory tree laid out as
// <root>/<secretName>/<fieldName>. This matches how secrets arrive when
// another system has already mounted them as files.
type FileConnector struct {
	name string
	root string
}

// NewFileConnector creates a file connector rooted at dir.
func NewFileConnector(name, root string) (*FileConnector, error) {
	if root == "" {
		return nil, fmt.Errorf("file connector '%s': root directory is required", name)
	}
	return &FileConnector{name: name, root: filepath.Clean(root)}, nil
}

// Name implements connector.Connector.
func (f *FileConnector) Name() string {
	return f.name
}

// Fetch implements connector.Connector.
func (f *FileConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	if err := ctx.Err(); err != nil {
		return connector.Value{}, connector.UnavailableError{Connector: f.name, Err: err}
	}
	path, err := f.valuePath(secretName, fieldName)
	if err != nil {
		return connector.Value{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  f.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: f.name, Err: err}
	}

	// Trailing newlines are editor artifacts, not part of the value.
	data = []byte(strings.TrimRight(string(data), "\n"))

	return connector.Value{
		Data:   data,
		Source: "file:" + path,
	}, nil
}

// Validate implements connector.Connector.
func (f *FileConnector) Validate(ctx context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil {
		return connector.UnavailableError{Connector: f.name, Err: err}
	}
	if !info.IsDir() {
		return connector.UnavailableError{
			Connector: f.name,
			Err:       fmt.Errorf("%s is not a directory", f.root),
		}
	}
	return nil
}

// valuePath joins the pair onto the root, refusing path escapes.
func (f *FileConnector) valuePath(secretName, fieldName string) (string, error) {
	path := filepath.Join(f.root, secretName, fieldName)
	if !strings.HasPrefix(path, f.root+string(filepath.Separator)) {
		return "", connector.UnavailableError{
			Connector: f.name,
			Err:       fmt.Errorf("lookup '%s/%s' escapes the connector root", secretName, fieldName),
		}
	}
	return path, nil
}
