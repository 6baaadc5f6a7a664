package composition

// Basis is the unit system a composition is expressed in.
type Basis string

// Composition basis constants.
const (
	WtPercentOxides Basis = "wtpt_oxides"
	MolOxides       Basis = "mol_oxides"
	MolCations      Basis = "mol_cations"
	// MolSingleO is a chemical formula on a one-oxygen basis. Output only.
	MolSingleO Basis = "mol_singleO"
)

// IsValid checks if the basis is a supported return basis.
func (b Basis) IsValid() bool {
	return b == WtPercentOxides || b == MolOxides || b == MolCations || b == MolSingleO
}

// IsInput reports whether a composition can be built from this basis.
func (b Basis) IsInput() bool {
	return b == WtPercentOxides || b == MolOxides || b == MolCations
}

// Normalization is the policy applied when a composition is read back.
type Normalization string

// Normalization policies.
const (
	NormNone Normalization = "none"
	// NormStandard scales everything, volatiles included, to 100.
	NormStandard Normalization = "standard"
	// NormFixedVolatiles keeps H2O and CO2 and rescales the rest to a grand total of 100.
	NormFixedVolatiles Normalization = "fixedvolatiles"
	// NormAdditionalVolatiles rescales non-volatiles to 100 and adds volatiles back unscaled.
	NormAdditionalVolatiles Normalization = "additionalvolatiles"
)

// IsValid checks if the normalization is one of the supported policies.
func (n Normalization) IsValid() bool {
	return n == NormNone || n == NormStandard || n == NormFixedVolatiles || n == NormAdditionalVolatiles
}
