package inputmodel

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome360-risk-client/internal/domain"
)

const defaultRequestJSON = `{
  "genomic": {
    "polygenic_risk_score": 0,
    "cnv_count": 0,
    "snps": {"rs429358": 0},
    "key_gene_variants": {"APOE_e4": 0, "BRCA1": 0}
  },
  "biomarkers": {
    "cholesterol_total": null,
    "hdl": null,
    "ldl": null,
    "triglycerides": null,
    "glucose_fasting": null,
    "hba1c": null,
    "systolic_bp": null,
    "diastolic_bp": null,
    "family_history": [],
    "comorbidities": []
  },
  "lifestyle": {
    "diet_quality": 3,
    "physical_activity_hours_per_week": 0,
    "smoking_status": "never",
    "alcohol_units_per_week": 0,
    "stress_level": 3,
    "sleep_hours": 7,
    "pollution_exposure_index": 3
  },
  "pharmacogenomics": {
    "cyp2d6_metabolizer": "normal",
    "cyp2c19_metabolizer": "normal",
    "cyp3a4_activity": 3,
    "abcb1_variant": 0,
    "receptor_mutations": {"EGFR_L858R": 0}
  }
}`

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestNewModelIsFullyPopulated(t *testing.T) {
	m := New()

	assert.JSONEq(t, defaultRequestJSON, mustJSON(t, m.Snapshot()))

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(mustJSON(t, m.Snapshot())), &top))
	assert.Len(t, top, 4)
	for _, key := range []string{"genomic", "biomarkers", "lifestyle", "pharmacogenomics"} {
		assert.Contains(t, top, key)
	}
}

func TestSetLastValueWinsWithoutInterference(t *testing.T) {
	m := New()
	edits := []struct {
		field domain.FieldName
		raw   string
	}{
		{domain.FieldPolygenicRiskScore, "4.2"},
		{domain.FieldPolygenicRiskScore, "6.5"},
		{domain.FieldCNVCount, "3"},
		{domain.FieldSNPrs429358, "2"},
		{domain.FieldAPOEe4, "1"},
		{domain.FieldBRCA1, "1"},
		{domain.FieldCholesterolTotal, "210"},
		{domain.FieldHDL, "45"},
		{domain.FieldLDL, "130.5"},
		{domain.FieldTriglycerides, "150"},
		{domain.FieldGlucoseFasting, "99"},
		{domain.FieldHbA1c, "5.7"},
		{domain.FieldSystolicBP, "128"},
		{domain.FieldDiastolicBP, "82"},
		{domain.FieldDiastolicBP, "84"},
		{domain.FieldFamilyHistory, "cancer, diabetes"},
		{domain.FieldComorbidities, "hypertension"},
		{domain.FieldDietQuality, "4"},
		{domain.FieldPhysicalActivity, "3.5"},
		{domain.FieldSmokingStatus, "former"},
		{domain.FieldSmokingStatus, "current"},
		{domain.FieldAlcoholUnits, "12"},
		{domain.FieldStressLevel, "5"},
		{domain.FieldSleepHours, "6.5"},
		{domain.FieldPollutionIndex, "2"},
		{domain.FieldCYP2D6, "poor"},
		{domain.FieldCYP2C19, "ultrarapid"},
		{domain.FieldCYP3A4, "1"},
		{domain.FieldABCB1, "1"},
		{domain.FieldEGFRL858R, "1"},
	}
	for _, e := range edits {
		require.NoError(t, m.Set(e.field, e.raw), "set %s=%q", e.field, e.raw)
	}

	want := &domain.PredictionRequest{
		Genomic: domain.GenomicData{
			PolygenicRiskScore: 6.5,
			CNVCount:           3,
			SNPs:               map[string]int{"rs429358": 2},
			KeyGeneVariants:    map[string]int{"APOE_e4": 1, "BRCA1": 1},
		},
		Biomarkers: domain.BiomarkerData{
			CholesterolTotal: domain.Present(210),
			HDL:              domain.Present(45),
			LDL:              domain.Present(130.5),
			Triglycerides:    domain.Present(150),
			GlucoseFasting:   domain.Present(99),
			HbA1c:            domain.Present(5.7),
			SystolicBP:       domain.Present(128),
			DiastolicBP:      domain.Present(84),
			FamilyHistory:    []string{"cancer", "diabetes"},
			Comorbidities:    []string{"hypertension"},
		},
		Lifestyle: domain.LifestyleData{
			DietQuality:                  4,
			PhysicalActivityHoursPerWeek: 3.5,
			SmokingStatus:                domain.SmokingCurrent,
			AlcoholUnitsPerWeek:          12,
			StressLevel:                  5,
			SleepHours:                   6.5,
			PollutionExposureIndex:       2,
		},
		Pharmacogenomics: domain.PharmacogenomicsData{
			CYP2D6Metabolizer:  domain.MetabolizerPoor,
			CYP2C19Metabolizer: domain.MetabolizerUltrarapid,
			CYP3A4Activity:     1,
			ABCB1Variant:       1,
			ReceptorMutations:  map[string]int{"EGFR_L858R": 1},
		},
	}

	got := m.Snapshot()
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(domain.OptionalFloat{})); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionalMeasurements(t *testing.T) {
	m := New()

	assert.Contains(t, mustJSON(t, m.Snapshot().Biomarkers), `"hdl":null`)

	require.NoError(t, m.Set(domain.FieldHDL, "0"))
	assert.Contains(t, mustJSON(t, m.Snapshot().Biomarkers), `"hdl":0`)

	require.NoError(t, m.Set(domain.FieldHDL, "   "))
	assert.Contains(t, mustJSON(t, m.Snapshot().Biomarkers), `"hdl":null`)

	require.NoError(t, m.SetMeasurement(domain.FieldLDL, domain.Present(101)))
	v, err := m.Get(domain.FieldLDL)
	require.NoError(t, err)
	assert.Equal(t, domain.Present(101), v)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"cancer,  diabetes ,,", []string{"cancer", "diabetes"}},
		{"", []string{}},
		{"   ", []string{}},
		{" , ,", []string{}},
		{"CKD", []string{"CKD"}},
		{"heart disease, stroke", []string{"heart disease", "stroke"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SplitList(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			for _, tok := range got {
				assert.NotEmpty(t, tok)
			}
		})
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	m := New()
	require.NoError(t, m.Set(domain.FieldSNPrs429358, "1"))
	require.NoError(t, m.Set(domain.FieldFamilyHistory, "cancer"))

	first := m.Snapshot()
	firstJSON := mustJSON(t, first)

	require.NoError(t, m.Set(domain.FieldSNPrs429358, "2"))
	require.NoError(t, m.Set(domain.FieldFamilyHistory, "cancer, stroke"))
	second := m.Snapshot()

	assert.Equal(t, firstJSON, mustJSON(t, first), "later edits must not reach an earlier snapshot")
	assert.Equal(t, 2, second.Genomic.SNPs["rs429358"])
	assert.Equal(t, []string{"cancer", "stroke"}, second.Biomarkers.FamilyHistory)

	first.Genomic.SNPs["rs429358"] = 99
	first.Biomarkers.FamilyHistory[0] = "mutated"
	assert.Equal(t, 2, second.Genomic.SNPs["rs429358"])
	assert.Equal(t, 2, m.Snapshot().Genomic.SNPs["rs429358"])
	assert.Equal(t, "cancer", m.Snapshot().Biomarkers.FamilyHistory[0])
}

func TestSetRejectsBadInputAndKeepsValue(t *testing.T) {
	tests := []struct {
		name  string
		field domain.FieldName
		raw   string
	}{
		{"text in int field", domain.FieldCNVCount, "many"},
		{"fraction in int field", domain.FieldStressLevel, "2.5"},
		{"text in float field", domain.FieldSleepHours, "lots"},
		{"NaN in float field", domain.FieldPolygenicRiskScore, "NaN"},
		{"text in optional field", domain.FieldHbA1c, "high"},
		{"infinite optional", domain.FieldLDL, "Inf"},
		{"unknown smoking token", domain.FieldSmokingStatus, "sometimes"},
		{"unknown metabolizer token", domain.FieldCYP2D6, "extensive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			before, err := m.Text(tt.field)
			require.NoError(t, err)

			err = m.Set(tt.field, tt.raw)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, string(tt.field), verr.Field)

			after, err := m.Text(tt.field)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestSetStoresOutOfRangeValuesUnchanged(t *testing.T) {
	m := New()

	require.NoError(t, m.Set(domain.FieldAPOEe4, "7"))
	require.NoError(t, m.SetInt(domain.FieldDietQuality, 42))
	require.NoError(t, m.SetFloat(domain.FieldSleepHours, 0.25))
	require.NoError(t, m.Set(domain.FieldCNVCount, "3.0"))

	snap := m.Snapshot()
	assert.Equal(t, 7, snap.Genomic.KeyGeneVariants["APOE_e4"])
	assert.Equal(t, 42, snap.Lifestyle.DietQuality)
	assert.Equal(t, 0.25, snap.Lifestyle.SleepHours)
	assert.Equal(t, 3, snap.Genomic.CNVCount)
}

func TestUnknownField(t *testing.T) {
	m := New()

	assert.ErrorIs(t, m.Set("bmi", "22"), domain.ErrUnknownField)
	_, err := m.Get("bmi")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.ErrorIs(t, m.SetInt("bmi", 22), domain.ErrUnknownField)
}

func TestTypedSettersCheckKind(t *testing.T) {
	m := New()

	var verr *domain.ValidationError
	assert.True(t, errors.As(m.SetInt(domain.FieldSleepHours, 8), &verr))
	assert.True(t, errors.As(m.SetFloat(domain.FieldCNVCount, 1.5), &verr))
	assert.True(t, errors.As(m.SetText(domain.FieldHDL, "abc"), &verr))
	assert.True(t, errors.As(m.SetMetabolizer(domain.FieldSmokingStatus, domain.MetabolizerPoor), &verr))
	assert.True(t, errors.As(m.SetSmokingStatus("sometimes"), &verr))

	require.NoError(t, m.SetSmokingStatus(domain.SmokingFormer))
	require.NoError(t, m.SetMetabolizer(domain.FieldCYP2C19, domain.MetabolizerIntermediate))
	require.NoError(t, m.SetText(domain.FieldComorbidities, "CKD,"))

	snap := m.Snapshot()
	assert.Equal(t, domain.SmokingFormer, snap.Lifestyle.SmokingStatus)
	assert.Equal(t, domain.MetabolizerIntermediate, snap.Pharmacogenomics.CYP2C19Metabolizer)
	assert.Equal(t, []string{"CKD"}, snap.Biomarkers.Comorbidities)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	m := New()

	err := m.Apply(map[domain.FieldName]string{
		domain.FieldStressLevel:   "5",
		domain.FieldSmokingStatus: "sometimes",
		"bmi":                     "22",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.JSONEq(t, defaultRequestJSON, mustJSON(t, m.Snapshot()))

	require.NoError(t, m.Apply(map[domain.FieldName]string{
		domain.FieldStressLevel:   "5",
		domain.FieldSmokingStatus: "current",
	}))
	assert.Equal(t, 5, m.Snapshot().Lifestyle.StressLevel)
	assert.Equal(t, domain.SmokingCurrent, m.Snapshot().Lifestyle.SmokingStatus)
}

func TestResetRestoresDefaults(t *testing.T) {
	m := New()
	require.NoError(t, m.Set(domain.FieldHbA1c, "6.1"))
	require.NoError(t, m.Set(domain.FieldCYP2D6, "poor"))

	m.Reset()

	assert.JSONEq(t, defaultRequestJSON, mustJSON(t, m.Snapshot()))
}

func TestEntriesFollowRegistryOrder(t *testing.T) {
	m := New()
	require.NoError(t, m.Set(domain.FieldFamilyHistory, "cancer,  diabetes ,,"))

	entries := m.Entries()
	fields := domain.Fields()
	require.Len(t, entries, len(fields))
	for i := range fields {
		assert.Equal(t, fields[i].Name, entries[i].Spec.Name)
	}

	values := m.Values()
	assert.Equal(t, "cancer,  diabetes ,,", values[domain.FieldFamilyHistory])
	assert.Equal(t, "", values[domain.FieldHDL])
	assert.Equal(t, "7", values[domain.FieldSleepHours])
	assert.Equal(t, "normal", values[domain.FieldCYP2D6])
}

func TestConcurrentEditsAndSnapshots(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.SetInt(domain.FieldAlcoholUnits, n*j)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()
}
