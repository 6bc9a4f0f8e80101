package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		street      string
		number      string
		district    string
		city        string
		state       string
		cep         string
		opts        []AddressOption
		wantErr     bool
		errContains string
	}{
		{
			name:     "valid address with required fields",
			street:   "Rua das Flores",
			number:   "123",
			district: "Centro",
			city:     "São Paulo",
			state:    "SP",
			cep:      "01310-100",
			wantErr:  false,
		},
		{
			name:     "valid address with complement",
			street:   "Avenida Paulista",
			number:   "1000",
			district: "Bela Vista",
			city:     "São Paulo",
			state:    "SP",
			cep:      "01310100",
			opts:     []AddressOption{WithComplement("Apto 42")},
			wantErr:  false,
		},
		{
			name:     "valid address with country",
			street:   "Rua do Sol",
			number:   "77",
			district: "Pelourinho",
			city:     "Salvador",
			state:    "BA",
			cep:      "40026-280",
			opts:     []AddressOption{WithCountry("Brasil")},
			wantErr:  false,
		},
		{
			name:     "lowercase state is normalized",
			street:   "Rua Quinze de Novembro",
			number:   "50",
			district: "Centro",
			city:     "Curitiba",
			state:    "pr",
			cep:      "80020-310",
			wantErr:  false,
		},
		{
			name:        "empty street",
			street:      "",
			number:      "123",
			district:    "Centro",
			city:        "São Paulo",
			state:       "SP",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "street cannot be empty",
		},
		{
			name:        "empty number",
			street:      "Rua das Flores",
			number:      "",
			district:    "Centro",
			city:        "São Paulo",
			state:       "SP",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "number cannot be empty",
		},
		{
			name:        "empty district",
			street:      "Rua das Flores",
			number:      "123",
			district:    "",
			city:        "São Paulo",
			state:       "SP",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "district cannot be empty",
		},
		{
			name:        "empty city",
			street:      "Rua das Flores",
			number:      "123",
			district:    "Centro",
			city:        "",
			state:       "SP",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "city cannot be empty",
		},
		{
			name:        "invalid state code",
			street:      "Rua das Flores",
			number:      "123",
			district:    "Centro",
			city:        "São Paulo",
			state:       "XX",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "valid UF",
		},
		{
			name:        "invalid cep",
			street:      "Rua das Flores",
			number:      "123",
			district:    "Centro",
			city:        "São Paulo",
			state:       "SP",
			cep:         "1234",
			wantErr:     true,
			errContains: "8 digits",
		},
		{
			name:        "street too long",
			street:      strings.Repeat("a", 201),
			number:      "123",
			district:    "Centro",
			city:        "São Paulo",
			state:       "SP",
			cep:         "01310-100",
			wantErr:     true,
			errContains: "street cannot exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.street, tt.number, tt.district, tt.city, tt.state, tt.cep, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.street, addr.Street())
			assert.Equal(t, tt.number, addr.Number())
			assert.Equal(t, tt.district, addr.District())
			assert.Equal(t, strings.ToUpper(tt.state), addr.State())
		})
	}
}

func TestNewAddressDefaults(t *testing.T) {
	addr, err := NewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
	require.NoError(t, err)
	assert.Equal(t, "Brasil", addr.Country())
	assert.Equal(t, "01310-100", addr.PostalCode().String())
}

func TestNewAddressNormalizesCity(t *testing.T) {
	addr, err := NewAddress("Rua Sete", "9", "Centro", "são josé dos campos", "SP", "12210-100")
	require.NoError(t, err)
	assert.Equal(t, "São José dos Campos", addr.City())
}

func TestMustNewAddress(t *testing.T) {
	t.Run("valid address does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
		})
	})

	t.Run("invalid address panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewAddress("", "123", "Centro", "São Paulo", "SP", "01310-100")
		})
	})
}

func TestEmptyAddress(t *testing.T) {
	addr := EmptyAddress()
	assert.True(t, addr.IsEmpty())
	assert.Empty(t, addr.FullAddress())
	assert.Empty(t, addr.ShortAddress())
}

func TestAddressFullAddress(t *testing.T) {
	addr, err := NewAddressFull("Avenida Paulista", "1000", "Apto 42", "Bela Vista", "São Paulo", "SP", "01310-100", "Brasil")
	require.NoError(t, err)

	full := addr.FullAddress()
	assert.Contains(t, full, "Avenida Paulista, 1000")
	assert.Contains(t, full, "Apto 42")
	assert.Contains(t, full, "Bela Vista")
	assert.Contains(t, full, "São Paulo - SP")
	assert.Contains(t, full, "01310-100")
	assert.Contains(t, full, "Brasil")
}

func TestAddressShortAddress(t *testing.T) {
	addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
	assert.Equal(t, "Rua das Flores, 123 - Centro", addr.ShortAddress())
}

func TestAddressRegionAddress(t *testing.T) {
	addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
	assert.Equal(t, "São Paulo - SP", addr.RegionAddress())
}

func TestAddressEquals(t *testing.T) {
	a1 := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
	a2 := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310100")
	a3 := MustNewAddress("Rua das Flores", "124", "Centro", "São Paulo", "SP", "01310-100")

	assert.True(t, a1.Equals(a2))
	assert.False(t, a1.Equals(a3))
}

func TestAddressSameRegion(t *testing.T) {
	sp1 := MustNewAddress("Rua A", "1", "Centro", "São Paulo", "SP", "01310-100")
	sp2 := MustNewAddress("Rua B", "2", "Pinheiros", "São Paulo", "SP", "05422-030")
	rj := MustNewAddress("Rua C", "3", "Copacabana", "Rio de Janeiro", "RJ", "22070-010")

	assert.True(t, sp1.SameCity(sp2))
	assert.True(t, sp1.SameState(sp2))
	assert.False(t, sp1.SameCity(rj))
	assert.False(t, sp1.SameState(rj))
}

func TestAddressWithUpdaters(t *testing.T) {
	addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")

	t.Run("with street", func(t *testing.T) {
		updated, err := addr.WithStreet("Rua Nova")
		require.NoError(t, err)
		assert.Equal(t, "Rua Nova", updated.Street())
		assert.Equal(t, "Rua das Flores", addr.Street()) // original unchanged
	})

	t.Run("with number", func(t *testing.T) {
		updated, err := addr.WithNumber("456")
		require.NoError(t, err)
		assert.Equal(t, "456", updated.Number())
	})

	t.Run("with state", func(t *testing.T) {
		updated, err := addr.WithState("RJ")
		require.NoError(t, err)
		assert.Equal(t, "RJ", updated.State())
	})

	t.Run("with cep", func(t *testing.T) {
		updated, err := addr.WithCEP("20040-020")
		require.NoError(t, err)
		assert.Equal(t, "20040-020", updated.PostalCode().String())
	})

	t.Run("with invalid state fails", func(t *testing.T) {
		_, err := addr.WithState("ZZ")
		assert.Error(t, err)
	})
}

func TestAddressJSON(t *testing.T) {
	t.Run("marshal", func(t *testing.T) {
		addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310100",
			WithComplement("Casa 2"))
		data, err := json.Marshal(addr)
		require.NoError(t, err)

		str := string(data)
		assert.Contains(t, str, `"street":"Rua das Flores"`)
		assert.Contains(t, str, `"state":"SP"`)
		assert.Contains(t, str, `"cep":"01310-100"`)
		assert.Contains(t, str, `"complement":"Casa 2"`)
	})

	t.Run("unmarshal valid", func(t *testing.T) {
		data := `{"street":"Avenida Atlântica","number":"500","district":"Copacabana","city":"Rio de Janeiro","state":"RJ","cep":"22010-000"}`
		var addr Address
		err := json.Unmarshal([]byte(data), &addr)
		require.NoError(t, err)
		assert.Equal(t, "Avenida Atlântica", addr.Street())
		assert.Equal(t, "RJ", addr.State())
	})

	t.Run("unmarshal empty gives empty address", func(t *testing.T) {
		var addr Address
		err := json.Unmarshal([]byte(`{}`), &addr)
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
	})

	t.Run("unmarshal invalid state fails", func(t *testing.T) {
		data := `{"street":"Rua A","number":"1","district":"Centro","city":"Cidade","state":"QQ","cep":"01310-100"}`
		var addr Address
		err := json.Unmarshal([]byte(data), &addr)
		assert.Error(t, err)
	})
}

func TestParseAddressFromJSON(t *testing.T) {
	t.Run("valid address JSON", func(t *testing.T) {
		data := []byte(`{"street":"Rua das Flores","number":"123","district":"Centro","city":"São Paulo","state":"SP","cep":"01310-100"}`)
		addr, err := ParseAddressFromJSON(data)
		require.NoError(t, err)
		assert.Equal(t, "Rua das Flores", addr.Street())
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		_, err := ParseAddressFromJSON([]byte(`{invalid}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse address JSON")
	})
}

func TestAddressDTO(t *testing.T) {
	addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100",
		WithComplement("Fundos"))

	dto := addr.ToDTO()
	assert.Equal(t, "Rua das Flores", dto.Street)
	assert.Equal(t, "Fundos", dto.Complement)
	assert.Equal(t, "01310-100", dto.CEP)

	restored, err := dto.ToAddress()
	require.NoError(t, err)
	assert.True(t, addr.Equals(restored))
}

func TestAddressValueScan(t *testing.T) {
	t.Run("value for empty address is nil", func(t *testing.T) {
		val, err := EmptyAddress().Value()
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("round trip through value and scan", func(t *testing.T) {
		addr := MustNewAddress("Rua das Flores", "123", "Centro", "São Paulo", "SP", "01310-100")
		val, err := addr.Value()
		require.NoError(t, err)

		var scanned Address
		err = scanned.Scan(val)
		require.NoError(t, err)
		assert.True(t, addr.Equals(scanned))
	})

	t.Run("scan nil gives empty address", func(t *testing.T) {
		var addr Address
		err := addr.Scan(nil)
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
	})

	t.Run("scan invalid type fails", func(t *testing.T) {
		var addr Address
		err := addr.Scan(42)
		assert.Error(t, err)
	})
}

func TestIsValidUF(t *testing.T) {
	for _, uf := range BrazilianStates {
		assert.True(t, IsValidUF(uf), "expected %s to be valid", uf)
	}
	assert.Len(t, BrazilianStates, 27)
	assert.False(t, IsValidUF("XX"))
	assert.False(t, IsValidUF(""))
	assert.False(t, IsValidUF("sp")) // not normalized
}

func TestNormalizeUF(t *testing.T) {
	assert.Equal(t, "SP", NormalizeUF(" sp "))
	assert.Equal(t, "RJ", NormalizeUF("rj"))
	assert.Equal(t, "MG", NormalizeUF("MG"))
}

func TestNormalizeCityName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"são paulo", "São Paulo"},
		{"RIO DE JANEIRO", "Rio de Janeiro"},
		{"são josé dos campos", "São José dos Campos"},
		{"feira de santana", "Feira de Santana"},
		{"  belo horizonte  ", "Belo Horizonte"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCityName(tt.in), "input %q", tt.in)
	}
}
