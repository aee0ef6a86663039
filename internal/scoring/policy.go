package scoring

import "ComplianceReview/internal/domain"

// Policy carries every tuning constant of the scoring engine. The defaults are
// heuristics, not derived invariants; deployments may override them from config.
type Policy struct {
	Weights      Weights            `yaml:"weights" toml:"weights"`
	Thresholds   domain.Thresholds  `yaml:"thresholds" toml:"thresholds"`
	Notify       float64            `yaml:"notifyBelow" toml:"notifyBelow"`
	Confidence   ConfidencePolicy   `yaml:"confidence" toml:"confidence"`
	Quality      QualityPolicy      `yaml:"quality" toml:"quality"`
	Completeness CompletenessPolicy `yaml:"completeness" toml:"completeness"`
	Adjustment   AdjustmentPolicy   `yaml:"adjustment" toml:"adjustment"`
}

// Weights of the three sub-scores in the composite score.
type Weights struct {
	Compliance   float64 `yaml:"compliance" toml:"compliance"`
	Quality      float64 `yaml:"quality" toml:"quality"`
	Completeness float64 `yaml:"completeness" toml:"completeness"`
}

// ConfidencePolicy penalises analyses the analyzer itself was unsure about.
type ConfidencePolicy struct {
	LowCutoff     int     `yaml:"lowCutoff" toml:"lowCutoff"`
	LowMultiplier float64 `yaml:"lowMultiplier" toml:"lowMultiplier"`
}

// QualityPolicy deductions from a baseline of 100.
type QualityPolicy struct {
	MinWords         int     `yaml:"minWords" toml:"minWords"`
	MinWordsPenalty  float64 `yaml:"minWordsPenalty" toml:"minWordsPenalty"`
	GoodWords        int     `yaml:"goodWords" toml:"goodWords"`
	GoodWordsPenalty float64 `yaml:"goodWordsPenalty" toml:"goodWordsPenalty"`
	MinPages         int     `yaml:"minPages" toml:"minPages"`
	MinPagesPenalty  float64 `yaml:"minPagesPenalty" toml:"minPagesPenalty"`
	MinTopics        int     `yaml:"minTopics" toml:"minTopics"`
	MinTopicsPenalty float64 `yaml:"minTopicsPenalty" toml:"minTopicsPenalty"`
}

// CompletenessPolicy deductions from a baseline of 100.
type CompletenessPolicy struct {
	MinClauses           int     `yaml:"minClauses" toml:"minClauses"`
	MinClausesPenalty    float64 `yaml:"minClausesPenalty" toml:"minClausesPenalty"`
	NoRegulationsPenalty float64 `yaml:"noRegulationsPenalty" toml:"noRegulationsPenalty"`
	OneRegulationPenalty float64 `yaml:"oneRegulationPenalty" toml:"oneRegulationPenalty"`
}

// Keyword is a weighted indicator searched for in analysis text.
type Keyword struct {
	Term   string  `yaml:"term" toml:"term"`
	Weight float64 `yaml:"weight" toml:"weight"`
}

// AdjustmentPolicy derives a compliance score from the analysis status and
// indicator keywords when the analyzer does not produce one itself.
type AdjustmentPolicy struct {
	CompliantBase      float64   `yaml:"compliantBase" toml:"compliantBase"`
	NonCompliantBase   float64   `yaml:"nonCompliantBase" toml:"nonCompliantBase"`
	ReviewBase         float64   `yaml:"reviewBase" toml:"reviewBase"`
	Penalties          []Keyword `yaml:"penalties" toml:"penalties"`
	PenaltyCap         int       `yaml:"penaltyCap" toml:"penaltyCap"`
	Bonuses            []Keyword `yaml:"bonuses" toml:"bonuses"`
	ManyRegulations    int       `yaml:"manyRegulations" toml:"manyRegulations"`
	ManyRegulationsAdj float64   `yaml:"manyRegulationsBonus" toml:"manyRegulationsBonus"`
	NoRegulationsAdj   float64   `yaml:"noRegulationsPenalty" toml:"noRegulationsPenalty"`
}

// DefaultPolicy returns the stock weights and thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Weights:    Weights{Compliance: 0.60, Quality: 0.25, Completeness: 0.15},
		Thresholds: domain.Thresholds{Low: 90, Medium: 75, MediumHigh: 60},
		Notify:     75,
		Confidence: ConfidencePolicy{LowCutoff: 60, LowMultiplier: 0.9},
		Quality: QualityPolicy{
			MinWords: 500, MinWordsPenalty: 30,
			GoodWords: 1000, GoodWordsPenalty: 15,
			MinPages: 2, MinPagesPenalty: 10,
			MinTopics: 3, MinTopicsPenalty: 20,
		},
		Completeness: CompletenessPolicy{
			MinClauses: 3, MinClausesPenalty: 25,
			NoRegulationsPenalty: 40,
			OneRegulationPenalty: 20,
		},
		Adjustment: AdjustmentPolicy{
			CompliantBase:    90,
			NonCompliantBase: 30,
			ReviewBase:       60,
			Penalties: []Keyword{
				{"violation", -10},
				{"non-compliant", -10},
				{"concern", -5},
				{"issue", -3},
				{"risk", -3},
				{"problem", -5},
				{"fails to", -8},
				{"does not comply", -10},
				{"missing", -5},
				{"lacks", -5},
				{"gender ideology", -5},
			},
			PenaltyCap: 3,
			Bonuses: []Keyword{
				{"compliant", 5},
				{"meets requirements", 8},
				{"aligns with", 5},
				{"satisfies", 5},
				{"complies with", 8},
				{"no concerns", 10},
				{"no issues", 8},
			},
			ManyRegulations:    2,
			ManyRegulationsAdj: 5,
			NoRegulationsAdj:   -10,
		},
	}
}
