package tsv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var styleHeaders = []string{"style", "brand", "category", "sub_category", "mrp", "gender"}

func TestParseHappyPath(t *testing.T) {
	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"ST001\tNike\tFootwear\tShoes\t2999.00\tMale\n" +
		"ST002\tAdidas\tFootwear\tShoes\t3499.00\tFemale\n")

	rows, err := Parse(data, styleHeaders)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "st001", rows[0].Values["style"])
	assert.Equal(t, "nike", rows[0].Values["brand"])
	assert.Equal(t, 3, rows[1].Number)
}

func TestParseHeaderMismatch(t *testing.T) {
	data := []byte("style\tbrand\n ST001\tNike\n")
	_, err := Parse(data, styleHeaders)
	require.Error(t, err)
	var mismatch *HeaderMismatchErr
	require.ErrorAs(t, err, &mismatch)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse([]byte("   \n\n"), styleHeaders)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseShortRowPadsMissingColumns(t *testing.T) {
	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"ST001\tNike\tFootwear\n")
	rows, err := Parse(data, styleHeaders)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Values["mrp"])
	assert.Equal(t, "", rows[0].Values["gender"])
}

func TestParseFileTooLarge(t *testing.T) {
	var b strings.Builder
	b.WriteString("style\tbrand\tcategory\tsub_category\tmrp\tgender\n")
	for i := 0; i < MaxDataRows+1; i++ {
		b.WriteString("ST001\tNike\tFootwear\tShoes\t2999.00\tMale\n")
	}
	_, err := Parse([]byte(b.String()), styleHeaders)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParseSkipsBlankLinesBetweenRows(t *testing.T) {
	data := []byte("style\tbrand\tcategory\tsub_category\tmrp\tgender\n" +
		"ST001\tNike\tFootwear\tShoes\t2999.00\tMale\n\n" +
		"ST002\tAdidas\tFootwear\tShoes\t3499.00\tFemale\n")
	rows, err := Parse(data, styleHeaders)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
