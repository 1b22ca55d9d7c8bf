// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfget

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/internal/container"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Hasher computes perceptual fingerprints of PDF pages by rendering them
// inside a container. Identical page layouts yield identical hashes, which
// catches PDFs swapped or re-downloaded under the same record.
type Hasher struct {
	Runtime container.Runtime
	Image   string
	Page    int
	Size    int
}

// NewHasher verifies the hash image is present in the detected runtime.
func NewHasher(cfg types.PDFConfig) (*Hasher, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	if err := rt.ImageExists(cfg.HashImage); err != nil {
		return nil, err
	}
	return &Hasher{Runtime: rt, Image: cfg.HashImage, Page: cfg.HashPage, Size: cfg.HashSize}, nil
}

// HashFile fingerprints one page of the PDF at path.
func (h *Hasher) HashFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%s: zero-size pdf", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	args := []string{
		"--page", strconv.Itoa(h.Page),
		"--size", strconv.Itoa(h.Size),
	}
	var out bytes.Buffer
	if err := h.Runtime.Run(h.Image, args, f, &out); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	hash := strings.TrimSpace(out.String())
	if hash == "" {
		return "", fmt.Errorf("hashing %s: empty output", path)
	}
	// An all-zero hash means a blank page, typically a broken download.
	if strings.Trim(hash, "0") == "" {
		return "", fmt.Errorf("hashing %s: blank page", path)
	}
	return hash, nil
}
