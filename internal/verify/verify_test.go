package verify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/potrans/internal/catalog"
)

const translated = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgctxt "XTools,Category_Random"
msgid "XTools|Random"
msgstr "XTools|随机"

msgid "Line one\n"
"line two"
msgstr "第一行\n"
"第二行"

msgid "Say \"hi\""
msgstr "说\"你好\""

msgid "Pending"
msgstr ""

msgid "%d file"
msgid_plural "%d files"
msgstr[0] "%d 个文件"
`

func TestCatalog(t *testing.T) {
	c, err := catalog.Parse(strings.NewReader(translated))
	require.NoError(t, err)

	res, err := Catalog(c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.True(t, res.OK(), "issues: %v", res.Issues)
}

func TestCatalog_ConflictingDuplicates(t *testing.T) {
	c, err := catalog.Parse(strings.NewReader(`msgid "Open"
msgstr "打开"

msgid "Open"
msgstr "开启"
`))
	require.NoError(t, err)

	res, err := Catalog(c)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "Open", res.Issues[0].Source)
	assert.Contains(t, res.Issues[0].String(), "line ")
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a\nb", unescape(`a\nb`))
	assert.Equal(t, `say "hi"`, unescape(`say \"hi\"`))
	assert.Equal(t, `bad \q`, unescape(`bad \q`))
}
