//go:build mage

// Package main provides build targets for now-core using Mage.
//
// Usage:
//
//	mage build            Compile the now binary to bin/
//	mage test             Run all tests
//	mage testUnit         Run tests in short mode
//	mage testIntegration  Run tests including PostgreSQL (requires Docker)
//	mage lint             Run golangci-lint and now-lint
//	mage serve            Build and run the HTTP API
//	mage clean            Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "now"
	binaryDir  = "bin"
	cmdDir     = "./cmd/now"
)

// Build compiles the now binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestUnit runs tests in short mode, skipping file database tests.
func TestUnit() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// TestIntegration runs all tests with PostgreSQL containers enabled.
func TestIntegration() error {
	env := map[string]string{"INTEGRATION_TEST": "1"}
	return sh.RunWithV(env, "go", "test", "./internal/infrastructure/relationaldb/...")
}

// Lint runs golangci-lint and the project analyzers in tools/now-lint.
func Lint() error {
	if err := sh.RunV("golangci-lint", "run", "./..."); err != nil {
		return err
	}
	mg.Deps(BuildLint)
	return sh.RunV(filepath.Join(binaryDir, "now-lint"), "./...")
}

// BuildLint compiles the now-lint analyzers to bin/.
func BuildLint() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	out, err := filepath.Abs(filepath.Join(binaryDir, "now-lint"))
	if err != nil {
		return err
	}
	return sh.RunV("go", "-C", "tools/now-lint", "build", "-o", out, ".")
}

// Serve builds and runs the HTTP API from the current directory.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "serve")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}
