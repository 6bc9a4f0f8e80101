package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Address is a value object representing a Brazilian delivery address
// It is immutable - all operations return new Address instances
// Fields: Street (rua), Number (número), Complement (complemento),
// District (bairro), City (cidade), State (UF), CEP, Country (país)
type Address struct {
	street     string
	number     string
	complement string
	district   string
	city       string
	state      string
	cep        CEP
	country    string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithComplement sets the complement (apartment, block, reference point)
func WithComplement(complement string) AddressOption {
	return func(a *Address) {
		a.complement = strings.TrimSpace(complement)
	}
}

// WithCountry sets the country for the address
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields
// Street, number, district, city, state, and CEP are required;
// complement and country are optional (country defaults to Brasil)
func NewAddress(street, number, district, city, state, cep string, opts ...AddressOption) (Address, error) {
	street = strings.TrimSpace(street)
	number = strings.TrimSpace(number)
	district = strings.TrimSpace(district)
	city = strings.TrimSpace(city)
	state = NormalizeUF(state)

	if err := validateStreet(street); err != nil {
		return Address{}, err
	}
	if err := validateNumber(number); err != nil {
		return Address{}, err
	}
	if err := validateDistrict(district); err != nil {
		return Address{}, err
	}
	if err := validateCity(city); err != nil {
		return Address{}, err
	}
	if !IsValidUF(state) {
		return Address{}, fmt.Errorf("state must be a valid UF code, got %q", state)
	}

	parsedCEP, err := NewCEP(cep)
	if err != nil {
		return Address{}, err
	}

	addr := Address{
		street:   street,
		number:   number,
		district: district,
		city:     NormalizeCityName(city),
		state:    state,
		cep:      parsedCEP,
		country:  "Brasil", // Default country
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if addr.complement != "" && len(addr.complement) > 100 {
		return Address{}, fmt.Errorf("complement cannot exceed 100 characters")
	}
	if addr.country != "" && len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// NewAddressWithComplement creates a new Address including the complement
func NewAddressWithComplement(street, number, complement, district, city, state, cep string) (Address, error) {
	return NewAddress(street, number, district, city, state, cep, WithComplement(complement))
}

// NewAddressFull creates a new Address with all fields including country
func NewAddressFull(street, number, complement, district, city, state, cep, country string) (Address, error) {
	opts := []AddressOption{WithComplement(complement)}
	if country != "" {
		opts = append(opts, WithCountry(country))
	}
	return NewAddress(street, number, district, city, state, cep, opts...)
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(street, number, district, city, state, cep string, opts ...AddressOption) Address {
	addr, err := NewAddress(street, number, district, city, state, cep, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// Street returns the street (rua/avenida)
func (a Address) Street() string {
	return a.street
}

// Number returns the street number
func (a Address) Number() string {
	return a.number
}

// Complement returns the complement
func (a Address) Complement() string {
	return a.complement
}

// District returns the district (bairro)
func (a Address) District() string {
	return a.district
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// State returns the two-letter UF code
func (a Address) State() string {
	return a.state
}

// PostalCode returns the CEP value object
func (a Address) PostalCode() CEP {
	return a.cep
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// IsEmpty returns true if the address is empty (all fields are blank)
func (a Address) IsEmpty() bool {
	return a.street == "" && a.number == "" && a.district == "" &&
		a.city == "" && a.state == "" && a.cep.IsEmpty()
}

// FullAddress returns the complete formatted address
// Format: Street, Number - Complement, District, City - UF, CEP, Country
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(a.street)
	if a.number != "" {
		sb.WriteString(", ")
		sb.WriteString(a.number)
	}
	if a.complement != "" {
		sb.WriteString(" - ")
		sb.WriteString(a.complement)
	}
	if a.district != "" {
		sb.WriteString(", ")
		sb.WriteString(a.district)
	}
	if a.city != "" {
		sb.WriteString(", ")
		sb.WriteString(a.city)
	}
	if a.state != "" {
		sb.WriteString(" - ")
		sb.WriteString(a.state)
	}
	if !a.cep.IsEmpty() {
		sb.WriteString(", ")
		sb.WriteString(a.cep.String())
	}
	if a.country != "" {
		sb.WriteString(", ")
		sb.WriteString(a.country)
	}
	return sb.String()
}

// ShortAddress returns a shortened address (Street, Number, District)
func (a Address) ShortAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 3)
	if a.street != "" {
		if a.number != "" {
			parts = append(parts, a.street+", "+a.number)
		} else {
			parts = append(parts, a.street)
		}
	}
	if a.district != "" {
		parts = append(parts, a.district)
	}
	return strings.Join(parts, " - ")
}

// RegionAddress returns region-level address (City - UF)
func (a Address) RegionAddress() string {
	if a.city == "" && a.state == "" {
		return ""
	}
	if a.city == "" {
		return a.state
	}
	if a.state == "" {
		return a.city
	}
	return a.city + " - " + a.state
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a.street == other.street &&
		a.number == other.number &&
		a.complement == other.complement &&
		a.district == other.district &&
		a.city == other.city &&
		a.state == other.state &&
		a.cep.Equals(other.cep) &&
		a.country == other.country
}

// SameCity returns true if both addresses are in the same city and state
func (a Address) SameCity(other Address) bool {
	return a.state == other.state && strings.EqualFold(a.city, other.city)
}

// SameState returns true if both addresses are in the same state
func (a Address) SameState(other Address) bool {
	return a.state == other.state
}

// WithStreet returns a new Address with the updated street
func (a Address) WithStreet(street string) (Address, error) {
	return NewAddressFull(street, a.number, a.complement, a.district, a.city, a.state, a.cep.String(), a.country)
}

// WithNumber returns a new Address with the updated number
func (a Address) WithNumber(number string) (Address, error) {
	return NewAddressFull(a.street, number, a.complement, a.district, a.city, a.state, a.cep.String(), a.country)
}

// WithUpdatedComplement returns a new Address with the updated complement
func (a Address) WithUpdatedComplement(complement string) (Address, error) {
	return NewAddressFull(a.street, a.number, complement, a.district, a.city, a.state, a.cep.String(), a.country)
}

// WithDistrict returns a new Address with the updated district
func (a Address) WithDistrict(district string) (Address, error) {
	return NewAddressFull(a.street, a.number, a.complement, district, a.city, a.state, a.cep.String(), a.country)
}

// WithCity returns a new Address with the updated city
func (a Address) WithCity(city string) (Address, error) {
	return NewAddressFull(a.street, a.number, a.complement, a.district, city, a.state, a.cep.String(), a.country)
}

// WithState returns a new Address with the updated state
func (a Address) WithState(state string) (Address, error) {
	return NewAddressFull(a.street, a.number, a.complement, a.district, a.city, state, a.cep.String(), a.country)
}

// WithCEP returns a new Address with the updated CEP
func (a Address) WithCEP(cep string) (Address, error) {
	return NewAddressFull(a.street, a.number, a.complement, a.district, a.city, a.state, cep, a.country)
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	CEP        string `json:"cep"`
	Country    string `json:"country,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street:     a.street,
		Number:     a.number,
		Complement: a.complement,
		District:   a.district,
		City:       a.city,
		State:      a.state,
		CEP:        a.cep.String(),
		Country:    a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler for deserialization purposes.
//
// IMPORTANT: This method exists ONLY to support JSON deserialization scenarios
// (e.g., API request binding, database JSON column retrieval).
// It is NOT intended for general Address creation from JSON data.
//
// For programmatic JSON parsing where you want explicit error handling and
// clearer intent, use ParseAddressFromJSON instead.
//
// The method maintains immutability by delegating to the NewAddressFull
// factory, ensuring all validation rules are applied consistently.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	// Allow empty addresses from JSON
	if v.Street == "" && v.Number == "" && v.District == "" && v.City == "" && v.State == "" && v.CEP == "" {
		*a = EmptyAddress()
		return nil
	}

	addr, err := NewAddressFull(v.Street, v.Number, v.Complement, v.District, v.City, v.State, v.CEP, v.Country)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddressFromJSON creates an Address from JSON data.
// This is the recommended way to create an Address from JSON when you want
// explicit control over error handling and clearer intent in your code.
//
// Unlike UnmarshalJSON (which is called implicitly by json.Unmarshal),
// this factory function makes the parsing operation explicit and returns
// a new Address value (not a pointer), maintaining immutability semantics.
//
// Example:
//
//	jsonData := []byte(`{"street":"Rua das Flores","number":"123","district":"Centro","city":"São Paulo","state":"SP","cep":"01310-100"}`)
//	addr, err := valueobject.ParseAddressFromJSON(jsonData)
//	if err != nil {
//	    // handle parsing error
//	}
func ParseAddressFromJSON(data []byte) (Address, error) {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return Address{}, fmt.Errorf("failed to parse address JSON: %w", err)
	}

	// Allow empty addresses from JSON
	if v.Street == "" && v.Number == "" && v.District == "" && v.City == "" && v.State == "" && v.CEP == "" {
		return EmptyAddress(), nil
	}

	return NewAddressFull(v.Street, v.Number, v.Complement, v.District, v.City, v.State, v.CEP, v.Country)
}

// AddressDTO is a data transfer object for database operations
// This allows Address to be stored as a JSON column
type AddressDTO struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	CEP        string `json:"cep"`
	Country    string `json:"country,omitempty"`
}

// ToDTO converts Address to AddressDTO for database storage
func (a Address) ToDTO() AddressDTO {
	return AddressDTO{
		Street:     a.street,
		Number:     a.number,
		Complement: a.complement,
		District:   a.district,
		City:       a.city,
		State:      a.state,
		CEP:        a.cep.String(),
		Country:    a.country,
	}
}

// ToAddress converts AddressDTO back to Address
func (dto AddressDTO) ToAddress() (Address, error) {
	if dto.Street == "" && dto.Number == "" && dto.District == "" && dto.City == "" && dto.State == "" && dto.CEP == "" {
		return EmptyAddress(), nil
	}
	return NewAddressFull(dto.Street, dto.Number, dto.Complement, dto.District, dto.City, dto.State, dto.CEP, dto.Country)
}

// MustToAddress converts AddressDTO to Address, panics on error
func (dto AddressDTO) MustToAddress() Address {
	addr, err := dto.ToAddress()
	if err != nil {
		panic(err)
	}
	return addr
}

// Value implements driver.Valuer for database storage
// Stores as JSON string
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval.
//
// IMPORTANT: This method exists ONLY to support GORM/database scanning scenarios.
// It is NOT intended for general Address creation from raw data.
//
// The method maintains immutability by delegating to UnmarshalJSON, which in
// turn uses the NewAddressFull factory, ensuring all validation rules are
// applied.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	// Handle empty string
	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}

	return json.Unmarshal(data, a)
}

// Validation functions

func validateStreet(street string) error {
	if street == "" {
		return fmt.Errorf("street cannot be empty")
	}
	if len(street) > 200 {
		return fmt.Errorf("street cannot exceed 200 characters")
	}
	return nil
}

func validateNumber(number string) error {
	if number == "" {
		return fmt.Errorf("number cannot be empty")
	}
	if len(number) > 20 {
		return fmt.Errorf("number cannot exceed 20 characters")
	}
	return nil
}

func validateDistrict(district string) error {
	if district == "" {
		return fmt.Errorf("district cannot be empty")
	}
	if len(district) > 100 {
		return fmt.Errorf("district cannot exceed 100 characters")
	}
	return nil
}

func validateCity(city string) error {
	if city == "" {
		return fmt.Errorf("city cannot be empty")
	}
	if len(city) > 100 {
		return fmt.Errorf("city cannot exceed 100 characters")
	}
	return nil
}

// BrazilianStates lists the 26 state UF codes plus the Distrito Federal
var BrazilianStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// IsValidUF checks if the state is a valid Brazilian UF code
func IsValidUF(state string) bool {
	for _, uf := range BrazilianStates {
		if uf == state {
			return true
		}
	}
	return false
}

// NormalizeUF normalizes a state code to the canonical uppercase two-letter form
func NormalizeUF(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

var ptBRTitle = cases.Title(language.BrazilianPortuguese)

// lowercase connectives that stay lowercase in Brazilian place names
var cityConnectives = map[string]struct{}{
	"da": {}, "de": {}, "do": {}, "das": {}, "dos": {}, "e": {},
}

// NormalizeCityName title-cases a city name using Brazilian Portuguese rules,
// keeping connectives such as "de" and "dos" in lowercase
// (e.g. "são josé dos campos" becomes "São José dos Campos")
func NormalizeCityName(city string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(city)))
	for i, w := range words {
		if _, ok := cityConnectives[w]; ok && i > 0 {
			continue
		}
		words[i] = ptBRTitle.String(w)
	}
	return strings.Join(words, " ")
}
