package upload

import (
	"bytes"
	stderrors "errors"
	"image"
	"mime"
	"path/filepath"
	"strings"

	// decoders for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kbukum/draftkit/errors"
)

// File is one file selected for upload.
type File struct {
	Name string
	Data []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Validator applies a Config's rules to single files.
type Validator struct {
	accept     []AcceptRule
	minBytes   int64
	maxBytes   int64
	dimensions *Dimensions
}

// NewValidator creates a Validator for cfg. Defaults are applied to a copy.
func NewValidator(cfg Config) *Validator {
	cfg.ApplyDefaults()
	return &Validator{
		accept:     cfg.Accept,
		minBytes:   cfg.MinBytes(),
		maxBytes:   cfg.MaxBytes(),
		dimensions: cfg.Dimensions,
	}
}

// Validate checks size, then type, then image dimensions, and returns the
// detected MIME type of an accepted file.
func (v *Validator) Validate(f File) (string, error) {
	size := f.Size()
	if size > v.maxBytes {
		return "", errors.FileTooLarge(f.Name, size, v.maxBytes)
	}
	if size < v.minBytes {
		return "", errors.FileTooSmall(f.Name, size, v.minBytes)
	}

	detected := baseType(mimetype.Detect(f.Data).String())
	if !v.accepts(f.Name, detected) {
		return "", errors.UnsupportedType(f.Name, detected)
	}

	if v.dimensions != nil && strings.HasPrefix(detected, "image/") {
		if err := v.checkDimensions(f); err != nil {
			return "", err
		}
	}
	return detected, nil
}

func (v *Validator) accepts(name, detected string) bool {
	if len(v.accept) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, rule := range v.accept {
		if !matchMIME(rule.MIME, detected) {
			continue
		}
		if len(rule.Extensions) == 0 {
			return true
		}
		for _, e := range rule.Extensions {
			if strings.EqualFold(normalizeExt(e), ext) {
				return true
			}
		}
	}
	return false
}

func (v *Validator) checkDimensions(f File) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if stderrors.Is(err, image.ErrFormat) {
		// no decoder for this format (webp, svg), so the bounds cannot apply
		return nil
	}
	if err != nil {
		return errors.InvalidDimensions(f.Name, 0, 0).WithCause(err)
	}
	d := v.dimensions
	w, h := cfg.Width, cfg.Height
	if w < d.MinWidth || h < d.MinHeight ||
		(d.MaxWidth > 0 && w > d.MaxWidth) ||
		(d.MaxHeight > 0 && h > d.MaxHeight) {
		return errors.InvalidDimensions(f.Name, w, h)
	}
	return nil
}

// matchMIME supports exact types and "type/*" wildcards.
func matchMIME(pattern, detected string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "*/*" || pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(detected, prefix+"/")
	}
	return pattern == detected
}

func baseType(m string) string {
	t, _, err := mime.ParseMediaType(m)
	if err != nil {
		return m
	}
	return t
}

func normalizeExt(e string) string {
	if e != "" && !strings.HasPrefix(e, ".") {
		return "." + e
	}
	return e
}
