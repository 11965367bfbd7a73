package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	tr, err := LoadEmbedded(Indonesian)
	require.NoError(t, err)

	assert.Equal(t, Indonesian, tr.Default())
	assert.Equal(t, []Language{Indonesian, English}, tr.Languages())
	assert.Equal(t, "Pemasok", tr.T(Indonesian, "nav.suppliers"))
	assert.Equal(t, "Suppliers", tr.T(English, "nav.suppliers"))
}

func TestTranslator_Fallbacks(t *testing.T) {
	tr, err := LoadEmbedded(Indonesian)
	require.NoError(t, err)

	// Missing in Indonesian, present in English.
	assert.Equal(t,
		"Camera unavailable. Try the other camera or request access again.",
		tr.T(Indonesian, "verify.camera.unavailable"))

	// Missing everywhere.
	assert.Equal(t, "no.such.key", tr.T(Indonesian, "no.such.key"))

	d := tr.Dictionary(Indonesian)
	assert.Equal(t, "Keluar", d["profile.logout"])
	assert.Contains(t, d, "verify.camera.unavailable")
}

func TestTranslator_Match(t *testing.T) {
	tr, err := LoadEmbedded(Indonesian)
	require.NoError(t, err)

	tests := []struct {
		accept string
		want   Language
	}{
		{"", Indonesian},
		{"en-US,en;q=0.9", English},
		{"id-ID,id;q=0.9,en;q=0.8", Indonesian},
		{"fr-FR", Indonesian},
		{"fr-FR,en;q=0.5", English},
		{";;;", Indonesian},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.Match(tt.accept), tt.accept)
	}
}

func TestTranslator_Parse(t *testing.T) {
	tr, err := LoadEmbedded(English)
	require.NoError(t, err)

	l, err := tr.Parse("ID")
	require.NoError(t, err)
	assert.Equal(t, Indonesian, l)

	_, err = tr.Parse("de")
	assert.Error(t, err)
}

func TestLanguage_Toggle(t *testing.T) {
	assert.Equal(t, Indonesian, English.Toggle())
	assert.Equal(t, English, Indonesian.Toggle())
}

func TestLoad_RequiresEnglish(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/id.yaml": {Data: []byte("locale: id\nmessages:\n  a: b\n")},
	}
	_, err := Load(fsys, Indonesian)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDefault(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  a: b\n")},
	}
	_, err := Load(fsys, Indonesian)
	assert.Error(t, err)
}
