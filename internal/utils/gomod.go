package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Module describes the Go module enclosing a directory
type Module struct {
	// Path is the module path from the module directive
	Path string
	// Dir is the directory holding go.mod
	Dir string
	// GoVersion is the go directive, empty when absent
	GoVersion string
}

// ParseModuleName extracts the module name from a go.mod file
func ParseModuleName(goModPath string) (string, error) {
	m, err := parseGoMod(goModPath)
	if err != nil {
		return "", err
	}
	return m.Path, nil
}

// FindModule searches for go.mod starting from startDir and walking up
func FindModule(startDir string) (*Module, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			return parseGoMod(goModPath)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return nil, fmt.Errorf("go.mod file not found above %s", startDir)
}

// ImportPath builds the import path of a package directory inside the module
func (m *Module) ImportPath(packageDir string) (string, error) {
	abs, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}
	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return m.Path, nil
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module %s", packageDir, m.Path)
	}
	return m.Path + "/" + rel, nil
}

func parseGoMod(goModPath string) (*Module, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return nil, fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("no module declaration found in go.mod")
	}

	m := &Module{Path: modFile.Module.Mod.Path, Dir: filepath.Dir(cleanPath)}
	if modFile.Go != nil {
		m.GoVersion = modFile.Go.Version
	}
	return m, nil
}
