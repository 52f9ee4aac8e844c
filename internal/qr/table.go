// Package qr maps QR codes shown to the camera onto catalog colors through
// a table built from validated reference images.
package qr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownPayload means a decoded payload is not in the table.
var ErrUnknownPayload = errors.New("unknown QR payload")

// Decoder decodes the QR code in an image file.
type Decoder func(path string) (string, error)

var referenceName = regexp.MustCompile(`^qr_([a-z][a-z0-9_-]*)\.(png|jpe?g)$`)

// Reference is one reference image and its verdict.
type Reference struct {
	Key     string
	Path    string
	Payload string
	Err     error
}

// Admitted reports whether the image decoded to its own key.
func (r Reference) Admitted() bool { return r.Err == nil }

// Table is an immutable payload to key lookup.
type Table struct {
	keys       map[string]string
	references []Reference
}

// Build decodes every reference image in dir and admits those whose payload
// equals the key in the file name. A missing directory yields an empty table.
func Build(dir string, decode Decoder, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table{keys: make(map[string]string)}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("reference directory missing", zap.String("dir", dir))
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}

	for _, entry := range entries {
		m := referenceName.FindStringSubmatch(strings.ToLower(entry.Name()))
		if entry.IsDir() || m == nil {
			continue
		}
		ref := Reference{Key: m[1], Path: filepath.Join(dir, entry.Name())}

		payload, err := decode(ref.Path)
		ref.Payload = normalize(payload)
		switch {
		case err != nil:
			ref.Err = fmt.Errorf("decode: %w", err)
		case ref.Payload == "":
			ref.Err = errors.New("no QR code found")
		case ref.Payload != ref.Key:
			ref.Err = fmt.Errorf("payload %q does not match %q", ref.Payload, ref.Key)
		case t.keys[ref.Payload] != "":
			ref.Err = fmt.Errorf("duplicate reference for %q", ref.Key)
		}

		if ref.Err != nil {
			logger.Warn("reference rejected", zap.String("path", ref.Path), zap.Error(ref.Err))
		} else {
			t.keys[ref.Payload] = ref.Key
		}
		t.references = append(t.references, ref)
	}

	logger.Info("reference table built", zap.String("dir", dir), zap.Int("admitted", len(t.keys)), zap.Int("total", len(t.references)))
	return t, nil
}

func normalize(payload string) string {
	return strings.ToLower(strings.TrimSpace(payload))
}

// Resolve returns the catalog key for a decoded payload.
func (t *Table) Resolve(payload string) (string, error) {
	if key, ok := t.keys[normalize(payload)]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPayload, payload)
}

// Keys returns the admitted keys in sorted order.
func (t *Table) Keys() []string {
	out := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of admitted codes.
func (t *Table) Len() int { return len(t.keys) }

// References returns every examined image, admitted or not.
func (t *Table) References() []Reference {
	out := make([]Reference, len(t.references))
	copy(out, t.references)
	return out
}
