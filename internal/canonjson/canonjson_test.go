package canonjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsObjectKeys(t *testing.T) {
	out, err := Marshal(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zeta":1}`, string(out))
}

func TestMarshal_FloatShortestForm(t *testing.T) {
	out, err := Marshal(map[string]float64{"a": 0.893, "b": 0.5, "c": 1.0})
	require.NoError(t, err)
	// 1.0 reparses as the integer literal 1.
	assert.Equal(t, `{"a":0.893,"b":0.5,"c":1}`, string(out))
}

func TestMarshal_IntegersVerbatim(t *testing.T) {
	out, err := Marshal([]int{13433, 0, 857})
	require.NoError(t, err)
	assert.Equal(t, `[13433,0,857]`, string(out))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := Marshal("a<b&c>d")
	require.NoError(t, err)
	assert.Equal(t, `"a<b&c>d"`, string(out))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "e" + combining acute normalizes to the precomposed form.
	decomposed := "é"
	out, err := Marshal(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"é\"", string(out))
}

func TestMarshal_HonorsCustomMarshalers(t *testing.T) {
	out, err := Marshal(customPayload{})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":[0.5,2]}`, string(out))
}

func TestMarshal_Deterministic(t *testing.T) {
	doc := map[string]any{
		"cifar10": map[string]any{
			"clean":    map[string]any{"857": 0.893},
			"pgd@Linf": map[string]any{"857": []float64{0.71, 0.52, 0.336, 0.12}},
		},
	}
	first, err := Marshal(doc)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(doc)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshal_NullAndBool(t *testing.T) {
	out, err := Marshal(map[string]any{"t": true, "f": false, "n": nil})
	require.NoError(t, err)
	assert.Equal(t, `{"f":false,"n":null,"t":true}`, string(out))
}

// customPayload exercises the re-canonicalization of MarshalJSON output.
type customPayload struct{}

func (customPayload) MarshalJSON() ([]byte, error) {
	return []byte(`{"b": [0.50, 2], "a": 1}`), nil
}
