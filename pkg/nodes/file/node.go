package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

var ErrPathRequired = errors.New("path parameter is required")

// absentFingerprint stands for a file that does not exist yet.
const absentFingerprint = "absent"

// InNode reads its file. The content hash is its external fingerprint, so an unchanged file
// is never read twice and an edited file recooks the node.
type InNode struct {
	id string
}

func (n *InNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	path := in.Params.String("path")
	if path == "" {
		return nil, ErrPathRequired
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return protocol.Single(Lines(string(data))), nil
}

func (n *InNode) ExternalFingerprint(params models.Params) (string, error) {
	path := params.String("path")
	if path == "" {
		return "", ErrPathRequired
	}

	return hashFile(path)
}

// OutNode writes its input to a file, skipping the write when the file already holds the
// same content. The "write" button forces the next write.
type OutNode struct {
	id         string
	forceWrite bool
}

func (n *OutNode) Cook(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	path := in.Params.String("path")
	if path == "" {
		return nil, ErrPathRequired
	}

	lines := in.Input(0)
	content := Content(lines)

	force := n.forceWrite
	n.forceWrite = false

	current, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	if !force && current == hashBytes([]byte(content)) {
		return protocol.Single(lines), nil
	}

	if err := writeAtomic(path, []byte(content)); err != nil {
		return nil, err
	}

	return protocol.Single(lines), nil
}

func (n *OutNode) ExternalFingerprint(params models.Params) (string, error) {
	path := params.String("path")
	if path == "" {
		return "", ErrPathRequired
	}

	return hashFile(path)
}

func (n *OutNode) PressButton(name string) {
	if name == "write" {
		n.forceWrite = true
	}
}

// Lines splits file content into lines. A trailing newline does not start a new line.
func Lines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return []string{}
	}

	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// Content is the file form of lines: each line terminated by a newline.
func Content(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return absentFingerprint, nil
	}

	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
