package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      string
	}{
		{goos: "darwin", goarch: "arm64", want: "fitrack_Darwin_all.tar.gz"},
		{goos: "darwin", goarch: "mips", want: "fitrack_Darwin_all.tar.gz"},
		{goos: "linux", goarch: "amd64", want: "fitrack_Linux_x86_64.tar.gz"},
		{goos: "linux", goarch: "386", want: "fitrack_Linux_i386.tar.gz"},
		{goos: "windows", goarch: "arm64", want: "fitrack_Windows_arm64.zip"},
		{goos: "plan9", goarch: "amd64", wantErr: "operating system"},
		{goos: "linux", goarch: "riscv64", wantErr: "architecture"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetNameFor(tt.goos, tt.goarch)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	got := parseChecksums([]byte("aa11  fitrack_Linux_x86_64.tar.gz\njunk\n\n  \nx y z\nbb22  checksums.sig\n"))
	assert.Equal(t, map[string]string{
		"fitrack_Linux_x86_64.tar.gz": "aa11",
		"checksums.sig":               "bb22",
	}, got)
	assert.Empty(t, parseChecksums(nil))
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("squat")
	sum := sha256.Sum256(data)
	good := hex.EncodeToString(sum[:])

	assert.NoError(t, verifyChecksum(data, good))
	assert.NoError(t, verifyChecksum(data, strings.ToUpper(good)), "hex case is ignored")
	assert.ErrorIs(t, verifyChecksum(data, "deadbeef"), ErrChecksum)
}

func TestExtractBinary(t *testing.T) {
	bin := []byte("#!/bin/sh\necho fitrack")

	t.Run("tar.gz", func(t *testing.T) {
		got, err := extractBinary(tarGz(t, "dist/fitrack", bin), "fitrack_Linux_x86_64.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("zip", func(t *testing.T) {
		got, err := extractBinary(zipped(t, "fitrack.exe", bin), "fitrack_Windows_x86_64.zip")
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := extractBinary(tarGz(t, "README.md", bin), "fitrack_Linux_x86_64.tar.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("corrupt archive", func(t *testing.T) {
		_, err := extractBinary([]byte("not gzip"), "fitrack_Linux_x86_64.tar.gz")
		require.Error(t, err)
	})
}

func TestApplyUpdateKeepsMode(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fitrack")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	bin := []byte("new build")
	sum := sha256.Sum256(bin)
	require.NoError(t, applyUpdate(bin, target, sum[:]))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, bin, got)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestApplyUpdateRejectsHashMismatch(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fitrack")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	err := applyUpdate([]byte("new build"), target, make([]byte, sha256.Size))
	assert.ErrorIs(t, err, ErrChecksum)

	got, _ := os.ReadFile(target)
	assert.Equal(t, []byte("old"), got)
}

// fakeRelease serves a fake GitHub release for tag. A nil checksums map means
// the checksums file is missing.
type fakeRelease struct {
	tag       string
	assets    map[string][]byte
	checksums map[string]string
}

func (r fakeRelease) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/abhisek/fitrack/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"` + r.tag + `","html_url":"https://example.com"}`))
	})
	for name, data := range r.assets {
		mux.HandleFunc("/abhisek/fitrack/releases/download/"+r.tag+"/"+name, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(data)
		})
	}
	if r.checksums != nil {
		var buf bytes.Buffer
		for name, sum := range r.checksums {
			buf.WriteString(sum + "  " + name + "\n")
		}
		mux.HandleFunc("/abhisek/fitrack/releases/download/"+r.tag+"/checksums.txt", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(buf.Bytes())
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdate(t *testing.T) {
	asset, err := assetNameFor(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		t.Skipf("no release asset for this platform: %v", err)
	}
	newBin := []byte("fitrack v2")
	var archive []byte
	if filepath.Ext(asset) == ".zip" {
		archive = zipped(t, "fitrack.exe", newBin)
	} else {
		archive = tarGz(t, "fitrack", newBin)
	}
	sum := sha256.Sum256(archive)
	good := hex.EncodeToString(sum[:])

	tests := []struct {
		name    string
		current string
		target  string
		rel     fakeRelease
		wantErr error
		errText string
		stages  []string
	}{
		{
			name:    "latest release",
			current: "v1.0.0",
			rel:     fakeRelease{tag: "v2.0.0", assets: map[string][]byte{asset: archive}, checksums: map[string]string{asset: good}},
			stages:  []string{"check", "download", "verify", "extract", "apply", "done"},
		},
		{
			name:    "pinned release skips check",
			current: "v3.0.0",
			target:  "v2.0.0",
			rel:     fakeRelease{tag: "v2.0.0", assets: map[string][]byte{asset: archive}, checksums: map[string]string{asset: good}},
			stages:  []string{"download", "verify", "extract", "apply", "done"},
		},
		{
			name:    "dev build",
			current: "(devel)",
			rel:     fakeRelease{tag: "v2.0.0"},
			wantErr: ErrDevBuild,
		},
		{
			name:    "already latest",
			current: "v2.0.0",
			rel:     fakeRelease{tag: "v2.0.0"},
			wantErr: ErrAlreadyLatest,
		},
		{
			name:    "checksum mismatch",
			current: "v1.0.0",
			rel:     fakeRelease{tag: "v2.0.0", assets: map[string][]byte{asset: archive}, checksums: map[string]string{asset: "00"}},
			wantErr: ErrChecksum,
		},
		{
			name:    "asset missing",
			current: "v1.0.0",
			rel:     fakeRelease{tag: "v2.0.0", checksums: map[string]string{asset: good}},
			errText: "download archive",
		},
		{
			name:    "checksums missing",
			current: "v1.0.0",
			rel:     fakeRelease{tag: "v2.0.0", assets: map[string][]byte{asset: archive}},
			errText: "download checksums",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := filepath.Join(t.TempDir(), "fitrack")
			require.NoError(t, os.WriteFile(exec, []byte("old"), 0o755))

			srv := tt.rel.serve(t)
			c := NewChecker(
				WithBaseURL(srv.URL),
				WithDownloadBaseURL(srv.URL),
				withExecPath(func() (string, error) { return exec, nil }),
			)

			var stages []string
			err := c.Update(context.Background(), &UpdateInput{CurrentVersion: tt.current, TargetVersion: tt.target},
				func(p UpdateProgress) { stages = append(stages, p.Stage) })

			got, _ := os.ReadFile(exec)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, []byte("old"), got)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				assert.Equal(t, []byte("old"), got)
			default:
				require.NoError(t, err)
				assert.Equal(t, newBin, got)
				assert.Equal(t, tt.stages, stages)
			}
		})
	}
}

func tarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o755, Typeflag: tar.TypeReg}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
