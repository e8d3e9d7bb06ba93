package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestIsWhitelisted(t *testing.T) {
	accepted := []string{
		"a.js", "a.ts", "a.py", "A.java", "b.kt", "c.swift", "d.m", "e.mm",
		"build.gradle", "settings.gradle.kts", "libs.versions.toml",
		"App.entitlements", "Info.plist", "PrivacyInfo.xcprivacy",
		"AndroidManifest.xml", "Podfile",
	}
	for _, name := range accepted {
		assert.True(t, IsWhitelisted(name), name)
	}

	rejected := []string{"notes.txt", "a.JS", "Podfile.lock", "androidmanifest.xml", "layout.xml", "README.md", "js"}
	for _, name := range rejected {
		assert.False(t, IsWhitelisted(name), name)
	}
}

func TestScan_CollectsWhitelistAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"test.js":                  "console.log('hi')",
		"subfolder/test.py":        "print('hi')",
		"AndroidManifest.xml":      "<manifest/>",
		"test.txt":                 "ignored",
		"deep/er/still/Podfile":    "platform :ios",
		"deep/er/still/readme.txt": "ignored",
	})

	files, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"AndroidManifest.xml",
		"deep/er/still/Podfile",
		"subfolder/test.py",
		"test.js",
	}, Paths(files))

	for _, f := range files {
		assert.False(t, f.Selected)
		assert.Empty(t, f.EncryptedContent)
	}
	assert.Equal(t, "print('hi')", string(files[2].Content))
	assert.Equal(t, "test.py", files[2].Name())
}

func TestScan_EmptyTree(t *testing.T) {
	files, err := Scan(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_InvalidUTF8FailsWholeScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.js": "ok",
		"bad.kt":  string([]byte{0xff, 0xfe, 0x00}),
	})

	files, err := Scan(context.Background(), root, Options{MaxConcurrency: 1})
	assert.Nil(t, files)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "decode", fe.Op)
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestScan_NonWhitelistedBinaryIsIgnored(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"image.png": string([]byte{0x89, 'P', 'N', 'G', 0xff}),
		"main.ts":   "export {}",
	})

	files, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.ts"}, Paths(files))
}

func TestScan_IgnoreDirs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/lib/index.js": "x",
		"src/index.js":              "y",
	})

	files, err := Scan(context.Background(), root, Options{IgnoreDirs: []string{"node_modules"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/index.js"}, Paths(files))
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "walk", fe.Op)
}

func TestScan_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTotalBytes(t *testing.T) {
	files := []CodeFile{{Content: []byte("abc")}, {Content: []byte("de")}}
	assert.Equal(t, 5, TotalBytes(files))
}
