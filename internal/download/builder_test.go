package download

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/increff/noos-service/internal/storage"
)

func TestStylesWritesHeaderAndRows(t *testing.T) {
	b := New(t.TempDir(), 0)
	result, err := b.Styles(context.Background(), []storage.Style{
		{StyleCode: "ST001", Brand: "Nike", Category: "Footwear", SubCategory: "Shoes", Mrp: 2999, Gender: "Male"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RecordCount)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "style\tbrand\tcategory\tsub_category\tmrp\tgender")
	assert.Contains(t, string(content), "ST001\tNike\tFootwear\tShoes\t2999.00\tMale")
	assert.NotEmpty(t, result.Checksum)
}

func TestChecksumChangesWhenContentChanges(t *testing.T) {
	b := New(t.TempDir(), 0)
	r1, err := b.Stores(context.Background(), []storage.Store{{Branch: "BR01", City: "Pune"}})
	require.NoError(t, err)
	r2, err := b.Stores(context.Background(), []storage.Store{{Branch: "BR01", City: "Mumbai"}})
	require.NoError(t, err)
	assert.NotEqual(t, r1.Checksum, r2.Checksum)
}

func TestTwoBuildersNeverCollideOnFileName(t *testing.T) {
	dir := t.TempDir()
	b1 := New(dir, 0)
	b2 := New(dir, 0)
	r1, err := b1.Stores(context.Background(), []storage.Store{{Branch: "BR01", City: "Pune"}})
	require.NoError(t, err)
	r2, err := b2.Stores(context.Background(), []storage.Store{{Branch: "BR02", City: "Mumbai"}})
	require.NoError(t, err)
	assert.NotEqual(t, r1.Path, r2.Path)
}

func TestNoosWritesExtendedHeader(t *testing.T) {
	b := New(t.TempDir(), 0)
	result, err := b.Noos(context.Background(), []storage.NoosResult{
		{Category: "Footwear", StyleCode: "ST001", Type: storage.NoosBestseller, TotalQuantitySold: 10},
	})
	require.NoError(t, err)
	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Category\tStyle Code\tStyle ROS\tType")
	assert.Contains(t, string(content), "bestseller")
}
