package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cssbuilder/internal/state"
)

const description = `color: red
"&:hover":
  color: blue
background:
  - red
  - linear-gradient(red, blue)
`

// run executes the application with a quiet configuration and returns STDOUT
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "quiet.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: none\n"), 0644))

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(stdin)

	err := app.Run(state.ContextWithEnv(context.Background()), append([]string{appName, "--config", cfgPath}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuild_Stdin(t *testing.T) {
	out, err := run(t, description, "build", "--selector", ".btn")
	require.NoError(t, err)

	want := ".btn{\n\tcolor: red;\n\tbackground: red;\n\tbackground: linear-gradient(red, blue);\n}\n" +
		".btn:hover{\n\tcolor: blue;\n}\n"
	assert.Equal(t, want, out)
}

func TestBuild_FileMinified(t *testing.T) {
	src := writeFile(t, t.TempDir(), "button.yaml", description)

	out, err := run(t, "", "build", "-m", "-s", "a, button", src)
	require.NoError(t, err)
	assert.Equal(t, "a, button{color: red;background: red;background: linear-gradient(red, blue);}a:hover,button:hover{color: blue;}", out)
}

func TestBuild_OutputFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "button.json", `{"margin": 0}`)
	dst := filepath.Join(dir, "button.css")

	out, err := run(t, "", "build", "-m", "-s", "p", "-o", dst, src)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "p{margin: 0;}", string(data))
}

func TestBuild_Directory(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	writeFile(t, in, "a.yaml", "color: red")
	writeFile(t, in, "nested/b.yml", "margin: 0")
	writeFile(t, in, "notes.txt", "ignored")

	_, err := run(t, "", "build", "-m", "-s", "div", "-o", outDir, in)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(outDir, "a.css"))
	require.NoError(t, err)
	assert.Equal(t, "div{color: red;}", string(a))

	b, err := os.ReadFile(filepath.Join(outDir, "nested", "b.css"))
	require.NoError(t, err)
	assert.Equal(t, "div{margin: 0;}", string(b))

	_, err = os.Stat(filepath.Join(outDir, "notes.css"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_DirectoryReportsAllFailures(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	writeFile(t, in, "good.yaml", "color: red")
	writeFile(t, in, "bad1.yaml", "color: [red")
	writeFile(t, in, "bad2.yaml", "color: {a: b}")

	_, err := run(t, "", "build", "--strict", "-s", "div", "-o", outDir, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad1.yaml")
	assert.Contains(t, err.Error(), "bad2.yaml")

	_, err = os.Stat(filepath.Join(outDir, "good.css"))
	assert.NoError(t, err)
}

func TestBuild_DirectoryRequiresOutput(t *testing.T) {
	_, err := run(t, "", "build", t.TempDir())
	assert.Error(t, err)
}

func TestBuild_MaxDepth(t *testing.T) {
	_, err := run(t, "\"& a\":\n  \"& b\":\n    color: red\n", "build", "--max-depth", "1", "-s", "p")
	assert.Error(t, err)

	out, err := run(t, "\"& a\":\n  \"& b\":\n    color: red\n", "build", "--max-depth", "2", "-m", "-s", "p")
	require.NoError(t, err)
	assert.Equal(t, "p a b{color: red;}", out)
}

func TestAttr(t *testing.T) {
	out, err := run(t, "font-family: '\"Fira\", sans-serif'\n\"&:hover\":\n  color: blue\n", "attr")
	require.NoError(t, err)
	assert.Equal(t, "font-family: &#34;Fira&#34;, sans-serif;", out)
}

func TestEmbed_StyleBlock(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "d.yaml", description)
	page := writeFile(t, dir, "p.html", "<html><head></head><body><a>x</a></body></html>")

	out, err := run(t, "", "embed", "-m", "-s", "a", desc, page)
	require.NoError(t, err)
	assert.Contains(t, out, `<style id="cssbuilder">a{color: red;background: red;background: linear-gradient(red, blue);}a:hover{color: blue;}</style>`)
}

func TestEmbed_Inline(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "d.yaml", description)
	page := writeFile(t, dir, "p.html", `<html><head></head><body><a style="margin:0">x</a><b>y</b></body></html>`)

	out, err := run(t, "", "embed", "--target", "a", desc, page)
	require.NoError(t, err)
	assert.Contains(t, out, `<a style="margin:0;color: red;background: red;background: linear-gradient(red, blue);">x</a>`)
	assert.Contains(t, out, "<b>y</b>")

	out, err = run(t, "", "embed", "--target", "a", "--replace", desc, page)
	require.NoError(t, err)
	assert.Contains(t, out, `<a style="color: red;background: red;background: linear-gradient(red, blue);">x</a>`)
}

func TestEmbed_StyleBlockRequiresSelector(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "d.yaml", description)
	page := writeFile(t, dir, "p.html", "<html><head></head><body></body></html>")

	out, err := run(t, "", "embed", desc, page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector required")
	assert.Empty(t, out)
}

func TestEmbed_MissingHTML(t *testing.T) {
	desc := writeFile(t, t.TempDir(), "d.yaml", description)

	_, err := run(t, "", "embed", "-s", "a", desc, filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestEmbed_MissingArguments(t *testing.T) {
	_, err := run(t, "", "embed", "only-one.yaml")
	assert.Error(t, err)
}

func TestBadConfigIsReported(t *testing.T) {
	errWasHandled = false
	t.Cleanup(func() { errWasHandled = false })

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(description)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	err := app.Run(state.ContextWithEnv(context.Background()), []string{appName, "--config", missing, "build"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to prepare configuration")
	assert.Contains(t, err.Error(), missing)
	// nothing was logged, main has to print the error
	assert.False(t, errWasHandled)
	assert.Empty(t, out.String())
}

func TestDumpConfig(t *testing.T) {
	out, err := run(t, "", "dumpconfig")
	require.NoError(t, err)
	assert.Contains(t, out, "level: none")

	out, err = run(t, "", "dumpconfig", "--default")
	require.NoError(t, err)
	assert.Contains(t, out, "level: normal")
	assert.Contains(t, out, "style_id: cssbuilder")
}
