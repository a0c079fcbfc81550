package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"surveytab/domain/survey"
	"surveytab/internal/codebook"
)

// SurveyGeneratorConfig configures the mock survey generator
type SurveyGeneratorConfig struct {
	Rows        int                `json:"rows"`
	Seed        int64              `json:"seed"`
	PathWeights map[string]float64 `json:"path_weights"`
	// MissingRate blanks a share of single-choice answers to exercise
	// missing handling.
	MissingRate float64 `json:"missing_rate"`
}

// DefaultSurveyConfig returns the defaults used by the mock data source
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Rows: 220,
		Seed: 42,
		PathWeights: map[string]float64{
			"treatment":  0.35,
			"control":    0.30,
			"common":     0.25,
			"validation": 0.10,
		},
		MissingRate: 0.03,
	}
}

// SurveyGenerator produces a realistic beneficiary survey
type SurveyGenerator struct {
	config   SurveyGeneratorConfig
	codebook *codebook.Codebook
	rng      *rand.Rand
	paths    []string
	cumul    []float64
}

// NewSurveyGenerator creates a new survey generator
func NewSurveyGenerator(config SurveyGeneratorConfig, cb *codebook.Codebook) *SurveyGenerator {
	if cb == nil {
		cb = codebook.Default()
	}
	g := &SurveyGenerator{
		config:   config,
		codebook: cb,
		rng:      rand.New(rand.NewSource(config.Seed)),
	}

	// Cohort keys in codebook order keep the draw reproducible.
	total := 0.0
	for _, key := range cb.CohortKeys() {
		if w := config.PathWeights[key]; w > 0 {
			total += w
			g.paths = append(g.paths, key)
			g.cumul = append(g.cumul, total)
		}
	}
	for i := range g.cumul {
		g.cumul[i] /= total
	}
	return g
}

var (
	lgas           = []string{"Abeokuta North", "Abeokuta South", "Ado-Odo/Ota", "Ijebu Ode", "Ijebu North", "Obafemi Owode"}
	yesNo          = []string{"Yes", "No"}
	programNames   = []string{"OGSTEP", "N-Power", "Fadama", "YouWin", "Private accelerator"}
	employment     = []string{"Wage employment", "Self-employed", "Apprentice", "Unemployed"}
	trainingTypes  = []string{"Automobile", "Electrical", "Tailoring", "ICT", "Agric"}
	barriers       = []string{"Jobs not available", "Skills mismatch", "Lack of capital", "Family responsibilities", "Other"}
	enterprises    = []string{"Poultry", "Cassava", "Maize", "Vegetables", "Aquaculture"}
	ogstepInputs   = []string{"Seeds", "Fertiliser", "Vet services", "Mechanisation", "Tools"}
	otherInputs    = []string{"Self-financed", "NGO", "Government", "Private buyer"}
	sectors        = []string{"Agro-processing", "Manufacturing", "Services", "Trade"}
	constraints    = []string{"Finance", "Inputs", "Regulation", "Demand", "Other"}
	groupMember    = []string{"Men", "Women", "Youth"}
	risks          = []string{"Finance", "Political", "Market", "Community", "Other"}
	influence      = []string{"Much more", "Somewhat more", "No change", "Less able"}
	continueChoice = []string{"Yes", "No", "Unsure"}
	supportTypes   = []string{"Training", "Finance", "Inputs", "Market", "Other"}
)

// Generate builds the dataset
func (g *SurveyGenerator) Generate() survey.Dataset {
	records := make([]survey.Record, 0, g.config.Rows)
	for i := 0; i < g.config.Rows; i++ {
		records = append(records, g.respondent(i))
	}
	return survey.NewDataset(records)
}

func (g *SurveyGenerator) respondent(idx int) survey.Record {
	rec := survey.Record{
		"SubmissionID": survey.Text(fmt.Sprintf("RESP-%04d", idx+1)),
		"survey_path":  survey.Text(g.path()),

		"A3_LGA":                    g.one(lgas),
		"A6_Consent":                g.one(yesNo),
		"A7_Sex":                    g.one([]string{"Male", "Female", "Other"}),
		"A8_Age":                    survey.Number(float64(18 + g.rng.Intn(50))),
		"A9_MaritalStatus":          g.one([]string{"Single", "Married", "Divorced", "Widowed"}),
		"A10_Education":             g.one([]string{"None", "Primary", "Secondary", "Vocational", "Tertiary"}),
		"A11_HouseholdSize":         survey.Number(math.Max(1, math.Round(5+g.rng.NormFloat64()*2))),
		"A12_EnumeratorObservation": g.one([]string{"High", "Moderate", "Low"}),

		"B1_Awareness":     g.one(yesNo),
		"B2_Participation": g.one(yesNo),
		"B4_SupportType":   g.many(supportTypes, 1, 3),
		"B6_OtherPrograms": g.one(yesNo),
		"B7_ProgramName":   g.one(programNames),

		"C1_OGSTEPTrainingCompleted": g.one(yesNo),
		"C2_TrainingType":            g.many(trainingTypes, 1, 3),
		"C3_NonOGSTEPTraining":       g.one(yesNo),
		"C4_EmploymentStatus":        g.one(employment),
		"C7_JobRelated":              g.one(yesNo),
		"C8_Barriers":                g.many(barriers, 1, 3),

		"D1_CurrentlyFarm":  g.one(yesNo),
		"D2_EnterpriseType": g.many(enterprises, 1, 2),
		"D6_OGSTEPInputs":   g.many(ogstepInputs, 1, 3),
		"D7_OtherInputs":    g.one(otherInputs),
		"D11_OffTaker":      g.one(yesNo),

		"E1_OwnBusiness":   g.one(yesNo),
		"E2_Sector":        g.many(sectors, 1, 2),
		"E6_OGSTEPFinance": g.one(yesNo),
		"E7_OtherSupport":  g.one(yesNo),
		"E8_NewTechnology": g.one(yesNo),
		"E9_Constraints":   g.many(constraints, 1, 3),

		"G1_IncomeDecisions": g.one([]string{"Self", "Spouse", "Joint", "Other"}),
		"G2_SavingsCredit":   g.one(yesNo),
		"G3_GroupMember":     g.many(groupMember, 1, 2),
		"G4_Influence":       g.one(influence),

		"H3_ContinueWithoutSupport": g.one(continueChoice),
		"H4_Risks":                  g.many(risks, 1, 3),
	}
	for _, field := range []string{
		"F1_WorryFood", "F2_SmallerMeals", "F3_FewerMeals", "F4_SleptHungry",
		"F5_NoFood", "F6_FoodSituation", "H1_Satisfaction", "H2_Trust",
	} {
		if order := g.codebook.Order(field); len(order) > 0 {
			rec[field] = g.one(order)
		}
	}
	return rec
}

func (g *SurveyGenerator) path() string {
	r := g.rng.Float64()
	for i, c := range g.cumul {
		if r < c {
			return g.paths[i]
		}
	}
	return g.paths[len(g.paths)-1]
}

func (g *SurveyGenerator) one(options []string) survey.Value {
	pick := options[g.rng.Intn(len(options))]
	if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
		return survey.Missing()
	}
	return survey.Text(pick)
}

// many picks between lo and hi distinct options, sorted.
func (g *SurveyGenerator) many(options []string, lo, hi int) survey.Value {
	k := lo + g.rng.Intn(hi-lo+1)
	perm := g.rng.Perm(len(options))[:k]
	picked := make([]string, k)
	for i, p := range perm {
		picked[i] = options[p]
	}
	sort.Strings(picked)
	return survey.Multi(picked)
}
