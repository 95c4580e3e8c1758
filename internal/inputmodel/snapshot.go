package inputmodel

import (
	"strings"

	"github.com/genome360-risk-client/internal/domain"
)

// Snapshot builds a new request from the current values. The returned maps
// and slices are freshly allocated; later edits never reach it.
func (m *Model) Snapshot() *domain.PredictionRequest {
	m.mu.RLock()
	v := m.v
	m.mu.RUnlock()
	return v.request()
}

func (v values) request() *domain.PredictionRequest {
	g, b, l, p := v.genomic, v.biomarkers, v.lifestyle, v.pharmaco

	return &domain.PredictionRequest{
		Genomic: domain.GenomicData{
			PolygenicRiskScore: g.polygenicRiskScore,
			CNVCount:           g.cnvCount,
			SNPs:               map[string]int{domain.SNPKeyRs429358: g.snpRs429358},
			KeyGeneVariants: map[string]int{
				domain.GeneKeyAPOEe4: g.apoeE4,
				domain.GeneKeyBRCA1:  g.brca1,
			},
		},
		Biomarkers: domain.BiomarkerData{
			CholesterolTotal: b.cholesterolTotal,
			HDL:              b.hdl,
			LDL:              b.ldl,
			Triglycerides:    b.triglycerides,
			GlucoseFasting:   b.glucoseFasting,
			HbA1c:            b.hba1c,
			SystolicBP:       b.systolicBP,
			DiastolicBP:      b.diastolicBP,
			FamilyHistory:    SplitList(b.familyHistory),
			Comorbidities:    SplitList(b.comorbidities),
		},
		Lifestyle: domain.LifestyleData{
			DietQuality:                  l.dietQuality,
			PhysicalActivityHoursPerWeek: l.physicalActivity,
			SmokingStatus:                l.smokingStatus,
			AlcoholUnitsPerWeek:          l.alcoholUnits,
			StressLevel:                  l.stressLevel,
			SleepHours:                   l.sleepHours,
			PollutionExposureIndex:       l.pollutionIndex,
		},
		Pharmacogenomics: domain.PharmacogenomicsData{
			CYP2D6Metabolizer:  p.cyp2d6,
			CYP2C19Metabolizer: p.cyp2c19,
			CYP3A4Activity:     p.cyp3a4,
			ABCB1Variant:       p.abcb1,
			ReceptorMutations:  map[string]int{domain.ReceptorKeyEGFRL858R: p.egfrL858R},
		},
	}
}

// SplitList turns comma separated text into trimmed, non-empty tokens. The
// result is never nil so it serializes as a JSON array.
func SplitList(s string) []string {
	out := []string{}
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
