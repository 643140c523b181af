package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/playerflow/internal/runtime/errors"
)

func TestLoadPlayers(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "players.xml"))
	require.NoError(t, err)

	assert.Equal(t, "players", doc.Root)
	assert.Equal(t, "players.xml", doc.Filename())
	require.Len(t, doc.Nodes, 3)
	for _, node := range doc.Nodes {
		assert.Equal(t, "player_registration", node.Name())
	}
	assert.Contains(t, string(doc.Nodes[0].Inner), "<name>John Doe</name>")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		file string
		want error
	}{
		{"does_not_exist.xml", errspkg.ErrDocumentNotFound},
		{"missing_root.xml", errspkg.ErrMalformedDocument},
		{"malformed.xml", errspkg.ErrMalformedDocument},
		{"invalid_root.xml", errspkg.ErrInvalidRoot},
		{"empty_root.xml", errspkg.ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			doc, err := Load(filepath.Join("testdata", tt.file))
			assert.Nil(t, doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadNotFoundWrapsOSError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want error
	}{
		{"empty input", "", errspkg.ErrMalformedDocument},
		{"only whitespace", "  \n", errspkg.ErrMalformedDocument},
		{"text before root", "oops<players><a/></players>", errspkg.ErrMalformedDocument},
		{"trailing text", "<players><a/></players>oops", errspkg.ErrMalformedDocument},
		{"two roots", "<players><a/></players><players><a/></players>", errspkg.ErrMalformedDocument},
		{"unclosed root", "<players><a/>", errspkg.ErrMalformedDocument},
		{"malformed wins over root name", "<teams><a></teams>", errspkg.ErrMalformedDocument},
		{"text only root", "<players>just text</players>", errspkg.ErrEmptyDocument},
		{"self closing root", "<players/>", errspkg.ErrEmptyDocument},
		{"comments only", "<players><!-- none --></players>", errspkg.ErrEmptyDocument},
		{"wrong root", "<player><a/></player>", errspkg.ErrInvalidRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseKeepsUnknownChildrenInOrder(t *testing.T) {
	doc, err := Parse([]byte(`<!-- batch --><players><b/><a x="1"/><b>text</b></players>`))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "b", doc.Nodes[0].Name())
	assert.Equal(t, "a", doc.Nodes[1].Name())
	assert.Equal(t, "b", doc.Nodes[2].Name())
	assert.Empty(t, doc.Filename())
}

func TestNodeOuterXML(t *testing.T) {
	doc, err := Parse([]byte(`<players><achievement year="20&amp;22" kind='"x"'>Top <b>Scorer</b></achievement></players>`))
	require.NoError(t, err)

	node := doc.Nodes[0]
	assert.Equal(t, `<achievement year="20&amp;22" kind="&#34;x&#34;">Top <b>Scorer</b></achievement>`, node.String())
}

func TestParseTranscodesDeclaredCharset(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "latin1.xml"))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 1)
	assert.Contains(t, string(doc.Nodes[0].Inner), "René Müller")
}
