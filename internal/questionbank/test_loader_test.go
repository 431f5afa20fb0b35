package questionbank

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "registry.json", `{"assessments":[{"id":"holo","path":"/survey/holo","title":{"en":"Holo"}}]}`)
	writeFile(t, root, "holo/zh.json", `{
  "sections": [{"id":"core","questions":[
    {"id":"mbti_1","type":"scale","text":{"zh":"我喜欢社交"},"leftLabel":{"zh":"不同意"},"rightLabel":{"zh":"同意"}},
    {"id":"zh_only","type":"text","text":{"zh":"描述你自己"}}
  ]}],
  "schemes": {"quick":{"sections":["core"]}}
}`)
	writeFile(t, root, "holo/en.yaml", `
sections:
  - id: core
    questions:
      - id: mbti_1
        type: scale
        text: {en: "I enjoy socializing"}
        leftLabel: {en: Disagree}
        rightLabel: {en: Agree}
schemes:
  quick:
    sections: [core]
`)
	return root
}

func TestDirLoaderRegistry(t *testing.T) {
	l, err := NewDirLoader(fixtureDir(t), 8)
	require.NoError(t, err)

	reg, err := l.Registry()
	require.NoError(t, err)
	require.Len(t, reg.Assessments, 1)
	assert.Equal(t, "holo", reg.Assessments[0].ID)
	assert.Equal(t, "Holo", reg.Assessments[0].Title.Get("en"))
}

func TestDirLoaderRegistryFromDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/zh.json", `{"sections":[]}`)
	writeFile(t, root, "a/zh.json", `{"sections":[]}`)
	l, err := NewDirLoader(root, 8)
	require.NoError(t, err)

	reg, err := l.Registry()
	require.NoError(t, err)
	require.Len(t, reg.Assessments, 2)
	assert.Equal(t, "a", reg.Assessments[0].ID)
	assert.Equal(t, "b", reg.Assessments[1].ID)
}

func TestDirLoaderDocumentFallsBackToZH(t *testing.T) {
	l, err := NewDirLoader(fixtureDir(t), 8)
	require.NoError(t, err)

	doc, loc, err := l.Document("holo", "en")
	require.NoError(t, err)
	assert.Equal(t, LocaleEN, loc)
	assert.Equal(t, "I enjoy socializing", doc.Sections[0].Questions[0].Text.Get("en"))

	doc, loc, err = l.Document("holo", "ja")
	require.NoError(t, err)
	assert.Equal(t, LocaleZH, loc)
	assert.Len(t, doc.Sections[0].Questions, 2)
}

func TestDirLoaderDocumentRejectsBadIDs(t *testing.T) {
	l, err := NewDirLoader(fixtureDir(t), 8)
	require.NoError(t, err)

	for _, id := range []string{"../etc", "", "a/b", ".hidden"} {
		_, _, err := l.Document(id, "zh")
		assert.True(t, errors.Is(err, ErrNotFound), "id %q", id)
	}
	_, _, err = l.Document("missing", "zh")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDirLoaderBankMergesLocales(t *testing.T) {
	l, err := NewDirLoader(fixtureDir(t), 8)
	require.NoError(t, err)

	b, err := l.Bank("holo")
	require.NoError(t, err)

	q, ok := b.Lookup("zh_only", "en")
	require.True(t, ok)
	assert.Equal(t, TypeText, q.Type)

	q, ok = b.Lookup("mbti_1", "en")
	require.True(t, ok)
	assert.Equal(t, "Agree", q.RightLabel.Get("en"))

	all, err := l.Bank("")
	require.NoError(t, err)
	_, ok = all.Lookup("mbti_1", "zh")
	assert.True(t, ok)
}

func TestDirLoaderCachesDocuments(t *testing.T) {
	root := fixtureDir(t)
	l, err := NewDirLoader(root, 8)
	require.NoError(t, err)

	first, _, err := l.Document("holo", "zh")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "holo", "zh.json")))

	second, _, err := l.Document("holo", "zh")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
