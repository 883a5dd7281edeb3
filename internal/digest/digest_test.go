package digest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), 0x00)
	}
	return out
}

func TestManifestDigest_Missing(t *testing.T) {
	m, err := ManifestDigest(filepath.Join(t.TempDir(), "requirements.txt"), "")
	require.NoError(t, err)
	assert.Equal(t, NoManifest, m.Hash)
	assert.Equal(t, Blake3, m.Algorithm)
}

func TestManifestDigest_IgnoresCosmeticChanges(t *testing.T) {
	a := writeManifest(t, "pandas>=2.0\nopenpyxl\nxlsxwriter\npyyaml\n")
	b := writeManifest(t, "\uFEFF# deps\r\npyyaml\r\n\r\nxlsxwriter  # charts\r\nopenpyxl\r\npandas >= 2.0\r\n")

	da, err := ManifestDigest(a, Blake3)
	require.NoError(t, err)
	db, err := ManifestDigest(b, Blake3)
	require.NoError(t, err)
	assert.Equal(t, da.Hash, db.Hash)
	assert.Equal(t, []string{"openpyxl", "pandas>=2.0", "pyyaml", "xlsxwriter"}, db.Requirements)
}

func TestManifestDigest_DetectsDependencyChange(t *testing.T) {
	a := writeManifest(t, "pandas==2.1.0\n")
	b := writeManifest(t, "pandas==2.2.0\n")
	da, err := ManifestDigest(a, Blake3)
	require.NoError(t, err)
	db, err := ManifestDigest(b, Blake3)
	require.NoError(t, err)
	assert.NotEqual(t, da.Hash, db.Hash)
}

func TestManifestDigest_OptionLinesCount(t *testing.T) {
	plain := writeManifest(t, "pandas\n")
	indexed := writeManifest(t, "pandas\n--index-url https://example.org/simple\n")
	other := writeManifest(t, "pandas\n--index-url   https://mirror.example.org/simple\n")

	dp, err := ManifestDigest(plain, Blake3)
	require.NoError(t, err)
	di, err := ManifestDigest(indexed, Blake3)
	require.NoError(t, err)
	do, err := ManifestDigest(other, Blake3)
	require.NoError(t, err)

	assert.NotEqual(t, dp.Hash, di.Hash)
	assert.NotEqual(t, di.Hash, do.Hash)
	assert.Equal(t, []string{"--index-url https://mirror.example.org/simple"}, do.Options)
	assert.Equal(t, []string{"pandas"}, do.Requirements)
}

func TestManifestDigest_FollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "pandas==2.1.0\n")
	writeFile(t, dir, "other.txt", "pandas==2.1.0\n")
	writeFile(t, dir, "constraints.txt", "numpy<2\n")
	manifest := writeFile(t, dir, "requirements.txt", "-r base.txt\n-c constraints.txt\n")

	empty, err := ManifestDigest(writeManifest(t, ""), Blake3)
	require.NoError(t, err)
	first, err := ManifestDigest(manifest, Blake3)
	require.NoError(t, err)
	assert.NotEqual(t, empty.Hash, first.Hash, "include-only manifest is not empty")
	assert.Equal(t, []string{filepath.Join(dir, "constraints.txt"), base}, first.Includes)

	// Editing an included file changes the digest.
	require.NoError(t, os.WriteFile(base, []byte("pandas==2.2.0\n"), 0o644))
	second, err := ManifestDigest(manifest, Blake3)
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, second.Hash)

	// So does pointing at another file.
	require.NoError(t, os.WriteFile(manifest, []byte("-r other.txt\n-c constraints.txt\n"), 0o644))
	third, err := ManifestDigest(manifest, Blake3)
	require.NoError(t, err)
	assert.NotEqual(t, second.Hash, third.Hash)
}

func TestManifestDigest_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "pandas\n-r b.txt\n")
	writeFile(t, dir, "b.txt", "numpy\n--requirement=a.txt\n")

	m, err := ManifestDigest(filepath.Join(dir, "a.txt"), Blake3)
	require.NoError(t, err)
	assert.Len(t, m.Hash, 64)
	assert.Equal(t, []string{filepath.Join(dir, "b.txt")}, m.Includes)
}

func TestManifestDigest_MissingInclude(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "requirements.txt", "-r missing.txt\n")
	m, err := ManifestDigest(manifest, Blake3)
	require.NoError(t, err)
	assert.NotEqual(t, NoManifest, m.Hash)
}

func TestManifestDigest_UTF16(t *testing.T) {
	utf8Path := writeManifest(t, "pandas\nopenpyxl\n")
	utf16Path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(utf16Path, utf16LE("pandas\r\nopenpyxl\r\n"), 0o644))

	a, err := ManifestDigest(utf8Path, Blake3)
	require.NoError(t, err)
	b, err := ManifestDigest(utf16Path, Blake3)
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
	assert.Equal(t, []string{"openpyxl", "pandas"}, b.Requirements)
}

func TestManifestDigest_RejectsNulBytes(t *testing.T) {
	// UTF-16LE without a BOM.
	p := writeManifest(t, "p\x00a\x00n\x00d\x00a\x00s\x00")
	_, err := ManifestDigest(p, Blake3)
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestIncludeTarget(t *testing.T) {
	tests := []struct {
		opt  string
		want string
		ok   bool
	}{
		{"-r base.txt", "base.txt", true},
		{"--requirement base.txt", "base.txt", true},
		{"--requirement=base.txt", "base.txt", true},
		{"-rbase.txt", "base.txt", true},
		{"-c constraints.txt", "constraints.txt", true},
		{"--constraint=c.txt", "c.txt", true},
		{"-e .", "", false},
		{"--index-url https://example.org", "", false},
		{"-r", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.opt, func(t *testing.T) {
			got, ok := IncludeTarget(tt.opt)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManifestDigest_Algorithms(t *testing.T) {
	p := writeManifest(t, "pandas\n")
	b3, err := ManifestDigest(p, Blake3)
	require.NoError(t, err)
	sha, err := ManifestDigest(p, SHA256)
	require.NoError(t, err)
	assert.Len(t, b3.Hash, 64)
	assert.Len(t, sha.Hash, 64)
	assert.NotEqual(t, b3.Hash, sha.Hash)
	assert.Len(t, b3.Short(), 16)

	_, err = ManifestDigest(p, "md5")
	assert.Error(t, err)
}

func TestManifestDigest_InvalidUTF8(t *testing.T) {
	p := writeManifest(t, "pandas\n\xff\xfe\xfd")
	_, err := ManifestDigest(p, Blake3)
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8 bom", []byte("\xEF\xBB\xBFa\r\nb"), "a\nb"},
		{"lone cr", []byte("a\rb\r"), "a\nb\n"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0x00, 'x'}, "x"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'p', 0x00, 'a', 0x00, '\r', 0x00, '\n', 0x00}, "pa\n"},
		{"utf32le bom", []byte{0xFF, 0xFE, 0x00, 0x00, 'x', 0x00, 0x00, 0x00}, "x"},
		{"plain", []byte("a\nb"), "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
