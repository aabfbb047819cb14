package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVReplacesCommas(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"Product", "Total"}, [][]string{
		{"Keyboard, wireless", Money(59.9)},
		{"Mouse", Money(10)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Product,Total\nKeyboard; wireless,59.90\nMouse,10.00\n", buf.String())
}
