package graph

import (
	"regexp"
	"strconv"
	"strings"
)

// RootPath is the implicit top-level container.
const RootPath = "/"

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether name can be used as a node name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

func joinPath(parent, name string) string {
	if parent == RootPath || parent == "" {
		return RootPath + name
	}

	return parent + "/" + name
}

// SplitPath returns the parent path and name of an absolute node path.
func SplitPath(path string) (parent, name string) {
	path = cleanPath(path)

	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return RootPath, path[i+1:]
	}

	return path[:i], path[i+1:]
}

// ValidPath reports whether path is an absolute node path made of valid names.
func ValidPath(path string) bool {
	if !strings.HasPrefix(path, RootPath) || path == RootPath {
		return false
	}

	for _, segment := range strings.Split(strings.TrimPrefix(path, RootPath), "/") {
		if !ValidName(segment) {
			return false
		}
	}

	return true
}

func cleanPath(path string) string {
	if path == "" {
		return RootPath
	}

	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	if !strings.HasPrefix(path, RootPath) {
		path = RootPath + path
	}

	return path
}

func isWithin(path, ancestor string) bool {
	if ancestor == RootPath {
		return true
	}

	return path == ancestor || strings.HasPrefix(path, ancestor+"/")
}

// typeBaseName turns a type tag into a name prefix for generated names.
func typeBaseName(nodeType string) string {
	var b strings.Builder

	for i, r := range nodeType {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}

			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	if b.Len() == 0 {
		return "node"
	}

	return b.String()
}

func splitTrailingNumber(name string) (string, int, bool) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}

	if i == len(name) || i == 0 {
		return name, 0, false
	}

	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, 0, false
	}

	return name[:i], n, true
}

// uniqueName returns desired if it is free under parent, otherwise desired with a
// numeric suffix. A node excluded by self does not count as a collision.
func (g *Graph) uniqueName(parent, desired string, self *Node) string {
	free := func(name string) bool {
		n, ok := g.paths[joinPath(parent, name)]

		return !ok || n == self
	}

	if free(desired) {
		return desired
	}

	base, num, _ := splitTrailingNumber(desired)

	for i := num + 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if free(candidate) {
			return candidate
		}
	}
}
