package jsoncolumn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	var col JsonColumn[[]string]

	require.NoError(t, col.Scan([]byte(`["vip","solar"]`)))
	assert.Equal(t, []string{"vip", "solar"}, *col.Get())

	require.NoError(t, col.Scan(`["a"]`))
	assert.Equal(t, []string{"a"}, col.Or(nil))

	require.NoError(t, col.Scan(nil))
	assert.Nil(t, col.Get())
	assert.Equal(t, []string{}, col.Or([]string{}))

	assert.Error(t, col.Scan(42))
}

func TestValue(t *testing.T) {
	v, err := New([]string{"x"}).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`["x"]`), v)

	v, err = JsonColumn[[]string]{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
