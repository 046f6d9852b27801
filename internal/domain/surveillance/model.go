package surveillance

import (
	"time"

	"github.com/google/uuid"
)

// CatalogDiagnosis is one diagnosis code covered by a program.
type CatalogDiagnosis struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// CatalogEntry is one epidemiological surveillance program in the catalog.
// ID is the canonical program identifier ("sve-auditory", ...).
type CatalogEntry struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Specialist  string             `json:"specialist,omitempty"`
	Diagnoses   []CatalogDiagnosis `json:"diagnoses"`
}

// Company is an employer with its program enrollment. EnrolledPrograms
// holds identifiers as entered upstream; they are canonicalized at match
// time, never at rest.
type Company struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	EnrolledPrograms []string  `json:"enrolled_programs"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// ProgramAlert reports diagnoses that fall under a program the employer has
// the person enrolled in.
type ProgramAlert struct {
	ProgramID        string   `json:"program_id"`
	ProgramName      string   `json:"program_name"`
	Description      string   `json:"description,omitempty"`
	MatchedDiagnoses []string `json:"matched_diagnoses"`
}

// ReferralCandidate groups diagnoses that match a catalog program the
// employer has not enrolled the person in, by suggested specialist.
type ReferralCandidate struct {
	Specialist       string   `json:"specialist"`
	Programs         []string `json:"programs"`
	MatchedDiagnoses []string `json:"matched_diagnoses"`
}

// Evaluation is the matcher output for one person and employer.
type Evaluation struct {
	ProgramAlerts      []ProgramAlert      `json:"program_alerts"`
	ReferralCandidates []ReferralCandidate `json:"referral_candidates"`
}

// DefaultSpecialist is suggested when a catalog entry names none.
const DefaultSpecialist = "General Medicine / Health Provider"

// DefaultCatalog is the built-in program catalog, used to seed storage and
// as fallback when no catalog rows exist yet.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			ID: "sve-auditory", Name: "Auditory Conservation Program",
			Description: "Monitoring of noise-exposed workers",
			Specialist:  "Audiology / Occupational Medicine",
			Diagnoses: []CatalogDiagnosis{
				{Code: "H90", Description: "Conductive and sensorineural hearing loss"},
				{Code: "H91", Description: "Other hearing loss"},
				{Code: "H83.3", Description: "Noise effects on inner ear"},
			},
		},
		{
			ID: "sve-respiratory", Name: "Respiratory Protection Program",
			Description: "Monitoring of workers exposed to dust, fumes and vapors",
			Specialist:  "Pneumology",
			Diagnoses: []CatalogDiagnosis{
				{Code: "J44", Description: "Chronic obstructive pulmonary disease"},
				{Code: "J45", Description: "Asthma"},
				{Code: "J64", Description: "Unspecified pneumoconiosis"},
				{Code: "J66", Description: "Airway disease due to organic dust"},
			},
		},
		{
			ID: "sve-musculoskeletal", Name: "Musculoskeletal Disorder Prevention Program",
			Description: "Monitoring of biomechanical load and repetitive motion",
			Specialist:  "Physiatry / Physical Therapy",
			Diagnoses: []CatalogDiagnosis{
				{Code: "M54", Description: "Dorsalgia"},
				{Code: "M51", Description: "Intervertebral disc disorders"},
				{Code: "M65", Description: "Synovitis and tenosynovitis"},
				{Code: "M75", Description: "Shoulder lesions"},
				{Code: "G56.0", Description: "Carpal tunnel syndrome"},
			},
		},
		{
			ID: "sve-visual", Name: "Visual Conservation Program",
			Description: "Monitoring of visually demanding and screen-intensive work",
			Specialist:  "Optometry / Ophthalmology",
			Diagnoses: []CatalogDiagnosis{
				{Code: "H52", Description: "Disorders of refraction and accommodation"},
				{Code: "H53", Description: "Visual disturbances"},
			},
		},
		{
			ID: "sve-cardiovascular", Name: "Cardiovascular Risk Program",
			Description: "Monitoring of metabolic and cardiovascular risk factors",
			Specialist:  "Internal Medicine",
			Diagnoses: []CatalogDiagnosis{
				{Code: "I10", Description: "Essential hypertension"},
				{Code: "E78", Description: "Disorders of lipoprotein metabolism"},
				{Code: "E66", Description: "Obesity"},
				{Code: "E11", Description: "Type 2 diabetes mellitus"},
			},
		},
		{
			ID: "sve-psychosocial", Name: "Psychosocial Risk Program",
			Description: "Monitoring of work-related mental health risk",
			Specialist:  "Psychology / Psychiatry",
			Diagnoses: []CatalogDiagnosis{
				{Code: "F32", Description: "Depressive episode"},
				{Code: "F41", Description: "Anxiety disorders"},
				{Code: "F43", Description: "Reaction to severe stress"},
			},
		},
		{
			ID: "sve-dermatological", Name: "Dermatological Surveillance Program",
			Description: "Monitoring of workers exposed to irritant and sensitizing agents",
			Specialist:  "Dermatology",
			Diagnoses: []CatalogDiagnosis{
				{Code: "L23", Description: "Allergic contact dermatitis"},
				{Code: "L24", Description: "Irritant contact dermatitis"},
			},
		},
	}
}
