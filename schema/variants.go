package schema

const (
	groupLab   = "Laboratory Measurements"
	groupVital = "Vital Signs"
	groupComo  = "Comorbidity"
)

var (
	mbp        = Field{Name: "mbp", Label: "Mean Blood Pressure (MBP, mmHg)", Group: groupVital, Kind: Float, Default: 90, Step: 1}
	sbp        = Field{Name: "sbp", Label: "Systolic Blood Pressure (SBP, mmHg)", Group: groupVital, Kind: Float, Default: 120, Step: 1}
	dbp        = Field{Name: "dbp", Label: "Diastolic Blood Pressure (DBP, mmHg)", Group: groupVital, Kind: Int, Default: 70, Step: 1}
	heartRate  = Field{Name: "heart_rate", Label: "Heart Rate (beats/min)", Group: groupVital, Kind: Int, Default: 80, Step: 1}
	respRate   = Field{Name: "resp_rate", Label: "Respiratory Rate (breaths/min)", Group: groupVital, Kind: Int, Default: 16, Step: 1}
	spo2       = Field{Name: "spo2", Label: "Oxygen Saturation (SpO₂, %)", Group: groupVital, Kind: Float, Max: 100, HasMax: true, Default: 98, Step: 1}
	creatinine = Field{Name: "creatinine", Label: "Creatinine (mg/dL)", Group: groupLab, Kind: Float, Default: 1.0, Step: 0.1}
	bun        = Field{Name: "bun", Label: "Blood Urea Nitrogen (BUN, mg/dL)", Group: groupLab, Kind: Float, Default: 15, Step: 1}
	chloride   = Field{Name: "chloride", Label: "Chloride (mmol/L)", Group: groupLab, Kind: Float, Default: 100, Step: 1}
	hematocrit = Field{Name: "hematocrit", Label: "Hematocrit (%)", Group: groupLab, Kind: Float, Default: 40, Step: 1}
	glucose    = Field{Name: "glucose", Label: "Glucose (mg/dL)", Group: groupLab, Kind: Float, Default: 120, Step: 5}
	calcium    = Field{Name: "calcium", Label: "Calcium (mg/dL)", Group: groupLab, Kind: Float, Default: 9.0, Step: 0.1}
	aniongap   = Field{Name: "aniongap", Label: "Anion Gap (mmol/L)", Group: groupLab, Kind: Float, Default: 12, Step: 1}
	platelet   = Field{Name: "platelet", Label: "Platelet Count (×10³/µL)", Group: groupLab, Kind: Float, Default: 250, Step: 10}
	mch        = Field{Name: "mch", Label: "Mean Corpuscular Hemoglobin (MCH, pg)", Group: groupLab, Kind: Float, Default: 30, Step: 0.1}
	mchc       = Field{Name: "mchc", Label: "MCH Concentration (MCHC, g/dL)", Group: groupLab, Kind: Float, Default: 33, Step: 0.1}
	renal      = Field{Name: "renal_disease", Label: "History of Renal Disease", Group: groupComo, Kind: Flag, Max: 1, HasMax: true}
	diabetes   = Field{Name: "diabetes", Label: "History of Diabetes", Group: groupComo, Kind: Flag, Max: 1, HasMax: true}
)

// Phenotype is the phenotype mapping form. Labels are 1..3 and the
// probability vector is ordered [1, 2, 3].
var Phenotype = newSchema(Schema{
	Name:  "hfpef-phenotype/v1",
	Title: "HFpEF Phenotype Mapping Tool",
	Fields: []Field{
		mbp,
		creatinine,
		bun,
		respRate,
		chloride,
		sbp,
		heartRate,
		renal,
		hematocrit,
		glucose,
		calcium,
		spo2,
		aniongap,
		platelet,
	},
	Indexing:     OneBased,
	Descriptions: true,
})

// Hematology is the second form. Its labels are raw class indexes.
var Hematology = newSchema(Schema{
	Name:  "hfpef-hematology/v1",
	Title: "HFpEF Classification (Hematology Panel)",
	Fields: []Field{
		mbp,
		dbp,
		sbp,
		heartRate,
		respRate,
		creatinine,
		bun,
		chloride,
		calcium,
		aniongap,
		platelet,
		mch,
		mchc,
		renal,
		diabetes,
	},
	Indexing: ZeroBased,
})
