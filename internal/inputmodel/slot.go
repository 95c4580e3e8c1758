package inputmodel

import (
	"strconv"

	"github.com/genome360-risk-client/internal/domain"
)

// slot points at the storage of one field inside values. Exactly one of the
// pointers is set, matching spec.Kind.
type slot struct {
	spec    domain.FieldSpec
	i       *int
	f       *float64
	opt     *domain.OptionalFloat
	str     *string
	smoking *domain.SmokingStatus
	metab   *domain.MetabolizerStatus
}

func (v *values) slot(name domain.FieldName) (slot, bool) {
	spec, ok := domain.LookupField(name)
	if !ok {
		return slot{}, false
	}
	s := slot{spec: spec}

	switch name {
	case domain.FieldPolygenicRiskScore:
		s.f = &v.genomic.polygenicRiskScore
	case domain.FieldCNVCount:
		s.i = &v.genomic.cnvCount
	case domain.FieldSNPrs429358:
		s.i = &v.genomic.snpRs429358
	case domain.FieldAPOEe4:
		s.i = &v.genomic.apoeE4
	case domain.FieldBRCA1:
		s.i = &v.genomic.brca1

	case domain.FieldCholesterolTotal:
		s.opt = &v.biomarkers.cholesterolTotal
	case domain.FieldHDL:
		s.opt = &v.biomarkers.hdl
	case domain.FieldLDL:
		s.opt = &v.biomarkers.ldl
	case domain.FieldTriglycerides:
		s.opt = &v.biomarkers.triglycerides
	case domain.FieldGlucoseFasting:
		s.opt = &v.biomarkers.glucoseFasting
	case domain.FieldHbA1c:
		s.opt = &v.biomarkers.hba1c
	case domain.FieldSystolicBP:
		s.opt = &v.biomarkers.systolicBP
	case domain.FieldDiastolicBP:
		s.opt = &v.biomarkers.diastolicBP
	case domain.FieldFamilyHistory:
		s.str = &v.biomarkers.familyHistory
	case domain.FieldComorbidities:
		s.str = &v.biomarkers.comorbidities

	case domain.FieldDietQuality:
		s.i = &v.lifestyle.dietQuality
	case domain.FieldPhysicalActivity:
		s.f = &v.lifestyle.physicalActivity
	case domain.FieldSmokingStatus:
		s.smoking = &v.lifestyle.smokingStatus
	case domain.FieldAlcoholUnits:
		s.i = &v.lifestyle.alcoholUnits
	case domain.FieldStressLevel:
		s.i = &v.lifestyle.stressLevel
	case domain.FieldSleepHours:
		s.f = &v.lifestyle.sleepHours
	case domain.FieldPollutionIndex:
		s.i = &v.lifestyle.pollutionIndex

	case domain.FieldCYP2D6:
		s.metab = &v.pharmaco.cyp2d6
	case domain.FieldCYP2C19:
		s.metab = &v.pharmaco.cyp2c19
	case domain.FieldCYP3A4:
		s.i = &v.pharmaco.cyp3a4
	case domain.FieldABCB1:
		s.i = &v.pharmaco.abcb1
	case domain.FieldEGFRL858R:
		s.i = &v.pharmaco.egfrL858R

	default:
		return slot{}, false
	}
	return s, true
}

func (s slot) get() any {
	switch {
	case s.i != nil:
		return *s.i
	case s.f != nil:
		return *s.f
	case s.opt != nil:
		return *s.opt
	case s.str != nil:
		return *s.str
	case s.smoking != nil:
		return *s.smoking
	case s.metab != nil:
		return *s.metab
	}
	return nil
}

func (s slot) text() string {
	switch {
	case s.i != nil:
		return strconv.Itoa(*s.i)
	case s.f != nil:
		return strconv.FormatFloat(*s.f, 'f', -1, 64)
	case s.opt != nil:
		return s.opt.String()
	case s.str != nil:
		return *s.str
	case s.smoking != nil:
		return string(*s.smoking)
	case s.metab != nil:
		return string(*s.metab)
	}
	return ""
}
