package amount

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0", want: "0"},
		{in: " 100 ", want: "100"},
		{in: "100000000000000000000", want: "100000000000000000000"},
		{in: "", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestZeroValue(t *testing.T) {
	var a Amount
	assert.True(t, a.IsZero())
	assert.Equal(t, "0", a.String())
	assert.Equal(t, "5", a.Add(New(5)).String())
}

func TestSub_Underflow(t *testing.T) {
	_, err := New(3).Sub(New(4))
	assert.Error(t, err)

	got, err := New(4).Sub(New(4))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestMulDivFloor(t *testing.T) {
	assert.Equal(t, "5", New(100).MulDivFloor(5, 100).String())
	assert.Equal(t, "0", New(19).MulDivFloor(5, 100).String())
	assert.Equal(t, "1", New(39).MulDivFloor(3, 100).String())

	// 1e18 * 20 overflows uint64
	big18 := MustParse("1000000000000000000")
	assert.Equal(t, "200000000000000000", big18.MulDivFloor(20, 100).String())
}

func TestImmutability(t *testing.T) {
	a := New(10)
	b := a.Add(New(1))
	assert.Equal(t, "10", a.String())
	assert.Equal(t, "11", b.String())

	raw := a.Big()
	raw.Add(raw, big.NewInt(100))
	assert.Equal(t, "10", a.String())
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Value Amount `json:"value"`
	}

	out, err := json.Marshal(wrapper{Value: MustParse("100000000000000000000")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"100000000000000000000"}`, string(out))

	var fromString, fromNumber wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"value":"42"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"value":42}`), &fromNumber))
	assert.Equal(t, "42", fromString.Value.String())
	assert.Equal(t, "42", fromNumber.Value.String())

	var bad wrapper
	assert.Error(t, json.Unmarshal([]byte(`{"value":"-3"}`), &bad))
}

func TestUnits(t *testing.T) {
	assert.InDelta(t, 100.0, MustParse("100000000000000000000").Units(18), 1e-9)
	assert.InDelta(t, 0.0, Zero.Units(18), 1e-9)
}
