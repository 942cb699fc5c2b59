package analysis

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// scanImports extracts the module names imported by a Python source file.
// It recognizes top-of-line `import a.b as x, c` and `from a.b import c`
// statements. Relative imports (`from . import x`) stay inside a package
// that is collected as a whole, so they are skipped here.
func scanImports(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var modules []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "import "):
			rest := strings.TrimPrefix(line, "import ")
			for _, part := range strings.Split(rest, ",") {
				name := importTarget(part)
				if name != "" {
					modules = append(modules, name)
				}
			}
		case strings.HasPrefix(line, "from "):
			rest := strings.TrimPrefix(line, "from ")
			fields := strings.Fields(rest)
			if len(fields) < 3 || fields[1] != "import" {
				continue
			}
			name := fields[0]
			if strings.HasPrefix(name, ".") {
				continue // relative import
			}
			modules = append(modules, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	return modules, nil
}

// importTarget normalizes one comma-separated clause of an import
// statement, dropping aliases and trailing comments.
func importTarget(clause string) string {
	clause = strings.TrimSpace(clause)
	if i := strings.Index(clause, "#"); i >= 0 {
		clause = strings.TrimSpace(clause[:i])
	}
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return ""
	}
	name := fields[0]
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

// topLevel returns the first component of a dotted module name.
func topLevel(module string) string {
	if i := strings.Index(module, "."); i >= 0 {
		return module[:i]
	}
	return module
}
