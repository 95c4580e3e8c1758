package domain

import "strconv"

// FieldName identifies a single input of the risk form. Names match the JSON
// keys used in the prediction request where a direct key exists.
type FieldName string

const (
	FieldPolygenicRiskScore FieldName = "polygenic_risk_score"
	FieldCNVCount           FieldName = "cnv_count"
	FieldSNPrs429358        FieldName = "snp_rs429358"
	FieldAPOEe4             FieldName = "apoe_e4"
	FieldBRCA1              FieldName = "brca1"

	FieldCholesterolTotal FieldName = "cholesterol_total"
	FieldHDL              FieldName = "hdl"
	FieldLDL              FieldName = "ldl"
	FieldTriglycerides    FieldName = "triglycerides"
	FieldGlucoseFasting   FieldName = "glucose_fasting"
	FieldHbA1c            FieldName = "hba1c"
	FieldSystolicBP       FieldName = "systolic_bp"
	FieldDiastolicBP      FieldName = "diastolic_bp"
	FieldFamilyHistory    FieldName = "family_history"
	FieldComorbidities    FieldName = "comorbidities"

	FieldDietQuality      FieldName = "diet_quality"
	FieldPhysicalActivity FieldName = "physical_activity_hours_per_week"
	FieldSmokingStatus    FieldName = "smoking_status"
	FieldAlcoholUnits     FieldName = "alcohol_units_per_week"
	FieldStressLevel      FieldName = "stress_level"
	FieldSleepHours       FieldName = "sleep_hours"
	FieldPollutionIndex   FieldName = "pollution_exposure_index"

	FieldCYP2D6    FieldName = "cyp2d6_metabolizer"
	FieldCYP2C19   FieldName = "cyp2c19_metabolizer"
	FieldCYP3A4    FieldName = "cyp3a4_activity"
	FieldABCB1     FieldName = "abcb1_variant"
	FieldEGFRL858R FieldName = "egfr_l858r"
)

// FieldKind is the semantic type of a field and selects its coercion rule.
type FieldKind string

const (
	KindInt      FieldKind = "int"
	KindFloat    FieldKind = "float"
	KindOptional FieldKind = "optional"
	KindList     FieldKind = "list"
	KindEnum     FieldKind = "enum"
)

// FieldSpec describes one registry entry. Min, Max and Step are presentation
// hints only; the input model stores out-of-range numbers unchanged.
type FieldSpec struct {
	Name    FieldName `json:"name"`
	Label   string    `json:"label"`
	Domain  Domain    `json:"domain"`
	Kind    FieldKind `json:"kind"`
	Default string    `json:"default"`
	Min     float64   `json:"min,omitempty"`
	Max     float64   `json:"max,omitempty"`
	Step    float64   `json:"step,omitempty"`
	Unit    string    `json:"unit,omitempty"`
	Options []string  `json:"options,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// Bounded reports whether the spec carries a presentation range.
func (s FieldSpec) Bounded() bool {
	return (s.Kind == KindInt || s.Kind == KindFloat) && s.Max > s.Min
}

// InRange reports whether v lies within the presentation range. Unbounded
// fields accept every value.
func (s FieldSpec) InRange(v float64) bool {
	if !s.Bounded() {
		return true
	}
	return v >= s.Min && v <= s.Max
}

// RangeLabel renders the range hint, e.g. "0-10".
func (s FieldSpec) RangeLabel() string {
	if !s.Bounded() {
		return ""
	}
	return strconv.FormatFloat(s.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(s.Max, 'f', -1, 64)
}

func smokingOptions() []string {
	out := make([]string, len(SmokingStatuses))
	for i, s := range SmokingStatuses {
		out[i] = string(s)
	}
	return out
}

func metabolizerOptions() []string {
	out := make([]string, len(MetabolizerStatuses))
	for i, s := range MetabolizerStatuses {
		out[i] = string(s)
	}
	return out
}

var registry = []FieldSpec{
	{Name: FieldPolygenicRiskScore, Label: "PRS", Domain: DomainGenomic, Kind: KindFloat, Default: "0", Min: 0, Max: 10, Step: 0.1},
	{Name: FieldCNVCount, Label: "CNV count", Domain: DomainGenomic, Kind: KindInt, Default: "0", Min: 0, Max: 20, Step: 1},
	{Name: FieldSNPrs429358, Label: "SNP rs429358 (0/1/2)", Domain: DomainGenomic, Kind: KindInt, Default: "0", Min: 0, Max: 2, Step: 1},
	{Name: FieldAPOEe4, Label: "APOE ε4 (0/1)", Domain: DomainGenomic, Kind: KindInt, Default: "0", Min: 0, Max: 1, Step: 1},
	{Name: FieldBRCA1, Label: "BRCA1 variant (0/1)", Domain: DomainGenomic, Kind: KindInt, Default: "0", Min: 0, Max: 1, Step: 1},

	{Name: FieldCholesterolTotal, Label: "Total Chol", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mg/dL"},
	{Name: FieldHDL, Label: "HDL", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mg/dL"},
	{Name: FieldLDL, Label: "LDL", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mg/dL"},
	{Name: FieldTriglycerides, Label: "Triglycerides", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mg/dL"},
	{Name: FieldGlucoseFasting, Label: "Glucose fasting", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mg/dL"},
	{Name: FieldHbA1c, Label: "HbA1c (%)", Domain: DomainBiomarker, Kind: KindOptional, Unit: "%"},
	{Name: FieldSystolicBP, Label: "SBP", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mmHg"},
	{Name: FieldDiastolicBP, Label: "DBP", Domain: DomainBiomarker, Kind: KindOptional, Unit: "mmHg"},
	{Name: FieldFamilyHistory, Label: "Family history (csv)", Domain: DomainBiomarker, Kind: KindList, Hint: "e.g., cancer, diabetes"},
	{Name: FieldComorbidities, Label: "Comorbidities (csv)", Domain: DomainBiomarker, Kind: KindList, Hint: "e.g., hypertension, CKD"},

	{Name: FieldDietQuality, Label: "Diet quality", Domain: DomainLifestyle, Kind: KindInt, Default: "3", Min: 1, Max: 5, Step: 1},
	{Name: FieldPhysicalActivity, Label: "Activity (hrs/wk)", Domain: DomainLifestyle, Kind: KindFloat, Default: "0", Min: 0, Max: 20, Step: 0.5},
	{Name: FieldSmokingStatus, Label: "Smoking", Domain: DomainLifestyle, Kind: KindEnum, Default: string(SmokingNever), Options: smokingOptions()},
	{Name: FieldAlcoholUnits, Label: "Alcohol units/wk", Domain: DomainLifestyle, Kind: KindInt, Default: "0", Min: 0, Max: 30, Step: 1},
	{Name: FieldStressLevel, Label: "Stress", Domain: DomainLifestyle, Kind: KindInt, Default: "3", Min: 1, Max: 5, Step: 1},
	{Name: FieldSleepHours, Label: "Sleep hours", Domain: DomainLifestyle, Kind: KindFloat, Default: "7", Min: 3, Max: 10, Step: 0.5},
	{Name: FieldPollutionIndex, Label: "Pollution index", Domain: DomainLifestyle, Kind: KindInt, Default: "3", Min: 1, Max: 5, Step: 1},

	{Name: FieldCYP2D6, Label: "CYP2D6", Domain: DomainPharmacogenomic, Kind: KindEnum, Default: string(MetabolizerNormal), Options: metabolizerOptions()},
	{Name: FieldCYP2C19, Label: "CYP2C19", Domain: DomainPharmacogenomic, Kind: KindEnum, Default: string(MetabolizerNormal), Options: metabolizerOptions()},
	{Name: FieldCYP3A4, Label: "CYP3A4 activity", Domain: DomainPharmacogenomic, Kind: KindInt, Default: "3", Min: 1, Max: 5, Step: 1},
	{Name: FieldABCB1, Label: "ABCB1 variant (0/1)", Domain: DomainPharmacogenomic, Kind: KindInt, Default: "0", Min: 0, Max: 1, Step: 1},
	{Name: FieldEGFRL858R, Label: "EGFR L858R (0/1)", Domain: DomainPharmacogenomic, Kind: KindInt, Default: "0", Min: 0, Max: 1, Step: 1},
}

var registryIndex = func() map[FieldName]int {
	idx := make(map[FieldName]int, len(registry))
	for i, spec := range registry {
		idx[spec.Name] = i
	}
	return idx
}()

// Fields returns a copy of the ordered field registry.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(registry))
	copy(out, registry)
	return out
}

// FieldsIn returns the registry entries of one domain, in registry order.
func FieldsIn(d Domain) []FieldSpec {
	var out []FieldSpec
	for _, spec := range registry {
		if spec.Domain == d {
			out = append(out, spec)
		}
	}
	return out
}

// LookupField finds the spec for name.
func LookupField(name FieldName) (FieldSpec, bool) {
	i, ok := registryIndex[name]
	if !ok {
		return FieldSpec{}, false
	}
	return registry[i], true
}
