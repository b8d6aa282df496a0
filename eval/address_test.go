package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/migadu/sievecore/ast"
)

func TestAddressValuesSplitsSubaddress(t *testing.T) {
	raw := []string{"Jane Doe <jane+bills@example.com>"}
	assert.Equal(t, []string{"jane"}, addressValues(ast.AddrUser, raw))
	assert.Equal(t, []string{"bills"}, addressValues(ast.AddrDetail, raw))
	assert.Equal(t, []string{"example.com"}, addressValues(ast.AddrDomain, raw))
}

func TestAddressValuesFallsBackToBareString(t *testing.T) {
	raw := []string{"not wrapped@host"}
	assert.Equal(t, []string{"not wrapped"}, addressValues(ast.AddrLocalpart, raw))
}

func TestAddressValuesNoDetailWhenNoPlus(t *testing.T) {
	raw := []string{"plain@example.com"}
	assert.Equal(t, []string{""}, addressValues(ast.AddrDetail, raw))
}

func TestAddressValuesSkipsEmptyUnparseableValue(t *testing.T) {
	raw := []string{"", "   "}
	assert.Empty(t, addressValues(ast.AddrAll, raw))
}
