// Package phenotype holds the published descriptions of the three HFpEF
// phenotypes.
package phenotype

const Fallback = "No phenotype description available."

const Disclaimer = "This tool assigns HFpEF phenotypes using a supervised classifier trained " +
	"to reproduce unsupervised K-prototypes-derived phenotypes. " +
	"It does not predict clinical outcomes, prognosis, or treatment response."

const Caption = "This tool assigns HFpEF phenotypes using a supervised TabPFN classifier trained to " +
	"reproduce unsupervised K-prototypes-derived phenotypes. " +
	"It is intended for phenotype mapping rather than outcome prediction."

var descriptions = map[int]string{
	1: "Phenotype 1 – Diabetic and Renal Phenotype: " +
		"Characterized by severe renal impairment and metabolic acidosis, " +
		"this phenotype exhibited the highest 1-year mortality. ",
	2: "Phenotype 2 – Hypertensive and Pulmonary Phenotype: " +
		"Marked by cardiovascular and pulmonary comorbidities with " +
		"hemodynamic instability. ",
	3: "Phenotype 3 – Low-Risk, Low Blood Pressure and Arrhythmia Phenotype: " +
		"Despite advanced age, patients demonstrated preserved physiological stability " +
		"and the most favorable prognosis. Diuretics consistently showed significant " +
		"survival benefit across all cohorts.",
}

// Describe returns the description of label, or Fallback.
func Describe(label int) string {
	if d, ok := descriptions[label]; ok {
		return d
	}
	return Fallback
}
