package screening

import (
	"github.com/estudiopraxis/console/pkg/errors"
	"github.com/estudiopraxis/console/pkg/models"
)

// Classification is the derived regulatory outcome of a screening run.
type Classification struct {
	IsPEP          bool
	RiskLevel      models.RiskLevel
	DiligenceLevel models.DiligenceLevel
	// CannotTransact reports the CRITICO business rule. It is a policy
	// output, not an enforced block.
	CannotTransact bool
}

type classifierInput struct {
	results      map[models.WatchlistSourceID]models.MatchResult
	gafiHighRisk bool
}

// rule is one named branch of the regulatory cascade. Rules are
// evaluated in order; the first applicable rule decides.
type rule struct {
	name    string
	applies func(in classifierInput) bool
	outcome func(in classifierInput) Classification
}

func hitOn(in classifierInput, id models.WatchlistSourceID) bool {
	r, ok := in.results[id]
	return ok && r.Checked && r.HitCount > 0
}

var cascade = []rule{
	{
		name: "sanciones_internacionales",
		applies: func(in classifierInput) bool {
			return hitOn(in, models.SourceUN) || hitOn(in, models.SourceOFAC)
		},
		outcome: func(in classifierInput) Classification {
			return Classification{
				RiskLevel:      models.RiskCritico,
				DiligenceLevel: models.DiligenceIntensificada,
				CannotTransact: true,
			}
		},
	},
	{
		name: "pep_nacional",
		applies: func(in classifierInput) bool {
			return hitOn(in, models.SourcePEPUY)
		},
		outcome: func(in classifierInput) Classification {
			return Classification{
				RiskLevel:      models.RiskAlto,
				DiligenceLevel: models.DiligenceIntensificada,
			}
		},
	},
	{
		name: "lista_ue",
		applies: func(in classifierInput) bool {
			return hitOn(in, models.SourceEU)
		},
		outcome: func(in classifierInput) Classification {
			return Classification{
				RiskLevel:      models.RiskAlto,
				DiligenceLevel: models.DiligenceIntensificada,
			}
		},
	},
	{
		name: "jurisdiccion_gafi",
		applies: func(in classifierInput) bool {
			return in.gafiHighRisk
		},
		outcome: func(in classifierInput) Classification {
			return Classification{
				RiskLevel:      models.RiskMedio,
				DiligenceLevel: models.DiligenceNormal,
			}
		},
	},
	{
		name: "sin_coincidencias",
		applies: func(in classifierInput) bool {
			return true
		},
		outcome: func(in classifierInput) Classification {
			return Classification{
				RiskLevel:      models.RiskBajo,
				DiligenceLevel: models.DiligenceSimplificada,
			}
		},
	},
}

// Classify derives the risk and diligence levels from the per-list
// results and the country-risk signal. A malformed input (a missing
// source result) fails loudly rather than defaulting to BAJO.
func Classify(results []models.MatchResult, gafiHighRisk bool) (Classification, error) {
	bySource := make(map[models.WatchlistSourceID]models.MatchResult, len(results))
	for _, r := range results {
		if _, dup := bySource[r.SourceID]; dup {
			return Classification{}, errors.ClassificationDefect.Explain(
				"duplicate match result for source %s", r.SourceID)
		}
		bySource[r.SourceID] = r
	}
	for _, id := range models.AllSources() {
		if _, ok := bySource[id]; !ok {
			return Classification{}, errors.ClassificationDefect.Explain(
				"missing match result for source %s", id)
		}
	}

	in := classifierInput{results: bySource, gafiHighRisk: gafiHighRisk}
	for _, r := range cascade {
		if !r.applies(in) {
			continue
		}
		out := r.outcome(in)
		// PEP status is a property of the subject, independent of which
		// rule decided the risk level.
		out.IsPEP = hitOn(in, models.SourcePEPUY)
		return out, nil
	}

	// Unreachable while the cascade ends in a catch-all; kept as a
	// guard so a future rule edit cannot silently fall through.
	return Classification{}, errors.ClassificationDefect.Explain("no classification rule applied")
}
