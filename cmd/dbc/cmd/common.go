package cmd

import (
	"fmt"
	"os"

	"github.com/ssargent/dbckit/pkg/schema"
	"github.com/ssargent/dbckit/pkg/table"
)

// openTable reads and decodes the file at path. The raw bytes are returned
// for commands that compare or archive them.
func (e *env) openTable(path, tableName string) (*table.Table, []byte, error) {
	s, err := e.schemaFor(path, tableName)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := table.Decode(data, s, e.tableOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return t, data, nil
}

func fieldLen(f schema.Field) string {
	if !f.IsArray() {
		return ""
	}
	return fmt.Sprintf("%d", f.Count())
}
