package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCEP(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"formatted cep", "01310-100", "01310-100", false},
		{"bare digits", "01310100", "01310-100", false},
		{"with spaces", " 01310-100 ", "01310-100", false},
		{"with dots", "01.310-100", "01310-100", false},
		{"too short", "0131010", "", true},
		{"too long", "013101001", "", true},
		{"letters", "abcde-fgh", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cep, err := NewCEP(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "8 digits")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cep.String())
		})
	}
}

func TestMustNewCEP(t *testing.T) {
	assert.NotPanics(t, func() { MustNewCEP("01310-100") })
	assert.Panics(t, func() { MustNewCEP("123") })
}

func TestCEPDigits(t *testing.T) {
	cep := MustNewCEP("01310-100")
	assert.Equal(t, "01310100", cep.Digits())
}

func TestCEPEmpty(t *testing.T) {
	assert.True(t, EmptyCEP().IsEmpty())
	assert.Empty(t, EmptyCEP().String())
	assert.False(t, MustNewCEP("01310-100").IsEmpty())
}

func TestCEPEquals(t *testing.T) {
	assert.True(t, MustNewCEP("01310-100").Equals(MustNewCEP("01310100")))
	assert.False(t, MustNewCEP("01310-100").Equals(MustNewCEP("20040-020")))
}

func TestCEPJSON(t *testing.T) {
	t.Run("marshal emits formatted form", func(t *testing.T) {
		data, err := json.Marshal(MustNewCEP("01310100"))
		require.NoError(t, err)
		assert.Equal(t, `"01310-100"`, string(data))
	})

	t.Run("unmarshal accepts bare digits", func(t *testing.T) {
		var cep CEP
		err := json.Unmarshal([]byte(`"01310100"`), &cep)
		require.NoError(t, err)
		assert.Equal(t, "01310-100", cep.String())
	})

	t.Run("unmarshal empty string gives empty cep", func(t *testing.T) {
		var cep CEP
		err := json.Unmarshal([]byte(`""`), &cep)
		require.NoError(t, err)
		assert.True(t, cep.IsEmpty())
	})

	t.Run("unmarshal invalid fails", func(t *testing.T) {
		var cep CEP
		err := json.Unmarshal([]byte(`"123"`), &cep)
		assert.Error(t, err)
	})
}

func TestCEPValueScan(t *testing.T) {
	t.Run("value for empty cep is nil", func(t *testing.T) {
		val, err := EmptyCEP().Value()
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("round trip", func(t *testing.T) {
		cep := MustNewCEP("01310-100")
		val, err := cep.Value()
		require.NoError(t, err)

		var scanned CEP
		require.NoError(t, scanned.Scan(val))
		assert.True(t, cep.Equals(scanned))
	})

	t.Run("scan nil gives empty cep", func(t *testing.T) {
		var cep CEP
		require.NoError(t, cep.Scan(nil))
		assert.True(t, cep.IsEmpty())
	})

	t.Run("scan invalid type fails", func(t *testing.T) {
		var cep CEP
		assert.Error(t, cep.Scan(12345))
	})
}
