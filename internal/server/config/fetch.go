package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// IsRemote reports whether src needs Fetch rather than a plain file read.
func IsRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// Fetch downloads a single config file from src (any go-getter address such
// as "git::https://host/repo.git//noisefield.yaml" or an https:// URL) into
// dir and returns the local path.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	name := filepath.Base(strings.SplitN(src, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "config.yaml"
	}
	dst := filepath.Join(dir, name)

	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch config %s: %w", src, err)
	}
	return dst, nil
}

// Resolve returns a local path for src, fetching it into dir first when it
// is remote.
func Resolve(ctx context.Context, src, dir string) (string, error) {
	if !IsRemote(src) {
		return src, nil
	}
	return Fetch(ctx, src, dir)
}
