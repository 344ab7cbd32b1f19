package eligibility

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"surveydash/domain/core"
	"surveydash/domain/dataset"
	"surveydash/domain/eligibility"
)

const maxConcurrentCriteria = 4

var fcsColumns = []string{
	"fcs/cereals", "fcs/pulses", "fcs/milk", "fcs/meat",
	"fcs/veg", "fcs/fruit", "fcs/oil", "fcs/sugar",
}

const fcsPoorToBorderline = "Household Food Consumption Scores: Poor to Borderline"

var presets = map[string]eligibility.Intervention{
	"Wheat": {
		Name: "Wheat",
		Criteria: []eligibility.Criterion{
			eligibility.RangeCriterion([]string{"part_2_wheat/part_2_agriculture/part_2_irrigated_land"}, 2, 5,
				"Household Dependence on Subsistence Farming with Access to 2-5 Jeribs of Irrigated Land"),
			eligibility.ValueCriterion("part_2_wheat/part_2_agriculture/part_2_access_seed", "no",
				"Households with No Access to Improved Wheat Seeds"),
			eligibility.RangeCriterion(fcsColumns, 0, 42, fcsPoorToBorderline),
		},
	},
	"Livestock": {
		Name: "Livestock",
		Criteria: []eligibility.Criterion{
			eligibility.ValueCriterion("part_1_livestock/part_1_livestock_sub_section/part_1_main_livelihood", "yes",
				"HH Depends Primarily on subsistence Livestock Farming Activities"),
			eligibility.ValueCriterion("part_1_livestock/part_1_livestock_sub_section/part_1_access_animal_feed", "no",
				"Households with No Access to Livestock Feed"),
			eligibility.ValueCriterion("part_1_livestock/part_1_livestock_basic_service/part_1_ngo_assistance_this_year", "no",
				"HH Has Not Received Animal Feed Assistance This Year"),
			eligibility.RangeCriterion([]string{
				"part_1_livestock/part_1_livestock_sub_section/part_1_cattle",
				"part_1_livestock/part_1_livestock_sub_section/part_1_buffalo",
				"part_1_livestock/part_1_livestock_sub_section/part_1_goat_sheep",
				"part_1_livestock/part_1_livestock_sub_section/part_1_donkey_mule_horse",
				"part_1_livestock/part_1_livestock_sub_section/part_1_camel",
			}, 1, 15, "Household Must Have 1-15 Animals"),
			eligibility.RangeCriterion(fcsColumns, 0, 42, fcsPoorToBorderline),
		},
	},
	"Vegetable_Home_Gardening": {
		Name: "Vegetable_Home_Gardening",
		Criteria: []eligibility.Criterion{
			eligibility.ValueCriterion("gen_info/sex", "female",
				"Permanent Female Headed Household or Temporary Female Headed Household"),
			eligibility.RangeCriterion([]string{"part_3_hg/part_3_income/part_3_cultivate_veg_jerib"}, 0, 0.2,
				"Households Having Access to a Backyard up to 400 sq.mt. (0.2) of Land"),
			eligibility.RangeCriterion(fcsColumns, 0, 42, fcsPoorToBorderline),
		},
	},
	"Cash_for_Work": {
		Name: "Cash_for_Work",
		Criteria: []eligibility.Criterion{
			eligibility.RangeCriterion([]string{"gen_info/hh_head_age"}, 18, 64,
				"Household have labour force within the HH, between 18 and 64 years old"),
			eligibility.RangeCriterion([]string{"part_5_cfw/part_5_agriculture/part_5_irrigated_land"}, 0, 0.5,
				"Household Having No Agricultural Productive Land, or 0.5 Jerib of Irrigated Land"),
			eligibility.RangeCriterion([]string{"part_5_cfw/part_5_agriculture/part_5_rainfed_land"}, 0, 5,
				"Household Having No Agricultural Productive Land, or 1 to 5 Jerib of Rain-fed Land"),
			eligibility.RangeCriterion([]string{
				"part_5_cfw/part_5_livestock/part_5_cattle",
				"part_5_cfw/part_5_livestock/part_5_buffalo",
				"part_5_cfw/part_5_livestock/part_5_goat_sheep",
				"part_5_cfw/part_5_livestock/part_5_donkey_mule_horse",
				"part_5_cfw/part_5_livestock/part_5_camel",
			}, 0, 5, "Household having no livestock or 5 Animals"),
			eligibility.RangeCriterion(fcsColumns, 0, 28, "Household Food Consumption Scores: Poor"),
		},
	},
}

var presetOrder = []string{"Wheat", "Livestock", "Vegetable_Home_Gardening", "Cash_for_Work"}

// Interventions lists the known aid programs
func Interventions() []eligibility.Intervention {
	out := make([]eligibility.Intervention, 0, len(presetOrder))
	for _, name := range presetOrder {
		out = append(out, presets[name])
	}
	return out
}

// Lookup returns the named intervention
func Lookup(name string) (eligibility.Intervention, error) {
	p, ok := presets[name]
	if !ok {
		return eligibility.Intervention{}, fmt.Errorf("%w: %q", core.ErrUnknownIntervention, name)
	}
	return p, nil
}

// InterventionReport collects the outcome of every criterion of a program
type InterventionReport struct {
	Intervention string                         `json:"intervention"`
	Outcomes     []*Outcome                     `json:"outcomes"`
	Averages     []eligibility.CriterionAverage `json:"averages"`
}

// EvaluateIntervention evaluates each criterion of intervention. Criteria
// are independent and run concurrently; outcomes keep the criteria order.
func EvaluateIntervention(ctx context.Context, table *dataset.Table, regions dataset.Regions, intervention eligibility.Intervention) (*InterventionReport, error) {
	outcomes := make([]*Outcome, len(intervention.Criteria))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCriteria)
	for i, criterion := range intervention.Criteria {
		i, criterion := i, criterion
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := Evaluate(table, regions, criterion)
			if err != nil {
				return fmt.Errorf("criterion %q: %w", criterion.Description, err)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &InterventionReport{
		Intervention: intervention.Name,
		Outcomes:     outcomes,
		Averages:     make([]eligibility.CriterionAverage, len(outcomes)),
	}
	for i, o := range outcomes {
		report.Averages[i] = eligibility.CriterionAverage{
			Description: o.Criterion.Description,
			EligiblePct: o.AverageEligible(),
		}
	}
	return report, nil
}
