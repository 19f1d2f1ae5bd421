package changeset

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/raveheart1/changekit/internal/pathguard"
)

// DefaultDir is the changeset directory name under the workspace root.
const DefaultDir = ".changeset"

// filePrefix is the fixed prefix of generated changeset file names.
const filePrefix = "changeset-"

// Write serializes cs and writes it as a new file under dirName within
// rootPath, creating the directory if needed. The file name carries a
// cryptographically random identifier; that randomness is the sole uniqueness
// guarantee between concurrent runs, so a low-entropy source is not
// acceptable here. Returns the absolute path of the written file.
//
// Root, directory, and final file path are each confined independently. The
// write is one shot: on failure the file is simply absent and the caller can
// rerun the whole workflow.
func Write(rootPath, dirName string, cs *Changeset) (string, error) {
	root, err := pathguard.Confine(rootPath, rootPath)
	if err != nil {
		return "", fmt.Errorf("validating workspace root: %w", err)
	}
	if dirName == "" {
		dirName = DefaultDir
	}

	dir, err := pathguard.ConfineDescend(dirName, root)
	if err != nil {
		return "", fmt.Errorf("validating changeset directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating changeset directory: %w", err)
	}

	content, err := Serialize(cs)
	if err != nil {
		return "", err
	}

	id, err := randomID()
	if err != nil {
		return "", fmt.Errorf("generating changeset id: %w", err)
	}
	path, err := pathguard.ConfineDescend(filePrefix+id+".md", dir)
	if err != nil {
		return "", fmt.Errorf("validating changeset path: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing changeset file: %w", err)
	}
	return path, nil
}

// randomID returns 16 hex characters from crypto/rand.
func randomID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
