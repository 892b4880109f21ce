package export

import (
	"fmt"
	"io"
	"os"
)

// writeFile creates path and streams write's output into it. A failed write
// leaves no partial file behind.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
