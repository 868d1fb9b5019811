package nif

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// NIF strings are Windows-1252.
var nameEncoding = charmap.Windows1252

// EncodeName converts a UTF-8 name to its NIF byte form. Characters
// Windows-1252 cannot represent are replaced.
func EncodeName(s string) []byte {
	enc := encoding.ReplaceUnsupported(nameEncoding.NewEncoder())
	result, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// DecodeName converts NIF name bytes to UTF-8, stopping at the first NUL.
func DecodeName(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	result, _, err := transform.Bytes(nameEncoding.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// NormalizeName returns s as it survives a round trip through a NIF file.
func NormalizeName(s string) string {
	return DecodeName(EncodeName(s))
}

// CleanFilename keeps only letters, digits and "._- " from a trimmed name.
func CleanFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._- ", r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TruncatePath returns the part of path after the directory called root,
// matched case-insensitively, with backslash separators as the game
// expects. Without such a directory the file name alone is returned.
func TruncatePath(path, root string) string {
	parts := strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for i := len(parts) - 2; i >= 0; i-- {
		if strings.EqualFold(parts[i], root) {
			return strings.Join(parts[i+1:], "\\")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// BoneNamer translates bone names between the NIF and the editor scene.
type BoneNamer interface {
	SceneName(nifName string) string
	NifName(sceneName string) string
}

type identityNamer struct{}

func (identityNamer) SceneName(n string) string { return n }
func (identityNamer) NifName(n string) string   { return n }

// IdentityNamer keeps bone names unchanged.
var IdentityNamer BoneNamer = identityNamer{}

// BoneDictionary is a BoneNamer backed by a table. Names missing from the
// table pass through unchanged.
type BoneDictionary struct {
	toScene map[string]string
	toNif   map[string]string
}

// NewBoneDictionary builds a dictionary from NIF name to scene name pairs.
func NewBoneDictionary(names map[string]string) *BoneDictionary {
	d := &BoneDictionary{
		toScene: make(map[string]string, len(names)),
		toNif:   make(map[string]string, len(names)),
	}
	for nifName, sceneName := range names {
		d.toScene[nifName] = sceneName
		d.toNif[sceneName] = nifName
	}
	return d
}

// SceneName returns the scene name for a NIF bone name.
func (d *BoneDictionary) SceneName(nifName string) string {
	if n, ok := d.toScene[nifName]; ok {
		return n
	}
	return nifName
}

// NifName returns the NIF name for a scene bone name.
func (d *BoneDictionary) NifName(sceneName string) string {
	if n, ok := d.toNif[sceneName]; ok {
		return n
	}
	return sceneName
}
