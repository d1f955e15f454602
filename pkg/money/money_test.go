package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("28.5")
	require.NoError(t, err)
	assert.Equal(t, Cents(2850), c)

	_, err = Parse("abc")
	assert.Error(t, err)

	_, err = Parse("1e30")
	assert.ErrorIs(t, err, ErrOverflow)

	c, err = Parse("25.000")
	require.NoError(t, err)
	assert.Equal(t, Cents(2500), c)

	for _, in := range []string{"25.005", "0.001", "-1.999"} {
		_, err = Parse(in)
		assert.ErrorIs(t, err, ErrSubCent, in)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "25.00", Cents(2500).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "R$ 53.00", Cents(5300).BRL())
	assert.Equal(t, 28.5, Cents(2850).Float64())
}

func TestAdd(t *testing.T) {
	sum, err := Cents(2500).Add(2800)
	require.NoError(t, err)
	assert.Equal(t, Cents(5300), sum)

	sum, err = Cents(100).Add(-250)
	require.NoError(t, err)
	assert.Equal(t, Cents(-150), sum)

	half := Cents(math.MaxInt64/2 + 1)
	_, err = half.Add(half)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Cents(math.MinInt64).Add(-1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestJSON(t *testing.T) {
	type line struct {
		Preco Cents `json:"preco"`
	}

	out, err := json.Marshal(line{Preco: 2500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"preco":25.00}`, string(out))
	assert.Equal(t, `{"preco":25.00}`, string(out))

	for raw, want := range map[string]Cents{
		`{"preco":25}`:    2500,
		`{"preco":25.0}`:  2500,
		`{"preco":19.99}`: 1999,
		`{"preco":1.5e1}`: 1500,
		`{"preco":-0.5}`:  -50,
		`{"preco": 0.1 }`: 10,
	} {
		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)
		assert.Equal(t, want, l.Preco, raw)
	}

	for _, raw := range []string{`{"preco":"25.00"}`, `{"preco":null}`, `{"preco":true}`, `{"preco":[1]}`, `{"preco":25.005}`} {
		var l line
		assert.Error(t, json.Unmarshal([]byte(raw), &l), raw)
	}
}
