package model

import (
	"encoding/gob"
	"fmt"
)

func init() {
	// Fitted classifiers travel through gob as the Classifier interface.
	gob.Register(&LogisticRegression{})
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
	gob.Register(&BoostedTrees{})
	gob.Register(&AdaBoost{})
	gob.Register(&KNN{})
}

// Candidate pairs a family with its hyperparameter grid.
type Candidate struct {
	Estimator Estimator
	Grid      []Params
}

// Name is the family name.
func (c Candidate) Name() string { return c.Estimator.Name() }

// Family keys accepted by DefaultCandidates, in registration order.
const (
	FamilyLogistic         = "logistic_regression"
	FamilyDecisionTree     = "decision_tree"
	FamilyRandomForest     = "random_forest"
	FamilyGradientBoosting = "gradient_boosting"
	FamilyNewtonBoosting   = "newton_boosting"
	FamilyAdaBoost         = "adaboost"
	FamilyKNN              = "knn"
)

// DefaultFamilies is the family list used when none is configured.
var DefaultFamilies = []string{
	FamilyLogistic,
	FamilyDecisionTree,
	FamilyRandomForest,
	FamilyGradientBoosting,
	FamilyNewtonBoosting,
	FamilyAdaBoost,
}

// DefaultCandidates builds candidates for the given family keys, in the given order.
// Stochastic families get the seed folded into every grid point.
func DefaultCandidates(families []string, seed int64) ([]Candidate, error) {
	out := make([]Candidate, 0, len(families))
	for _, f := range families {
		var c Candidate
		switch f {
		case FamilyLogistic:
			c = Candidate{LogisticEstimator{}, ParamGrid(map[string][]any{
				"C":      {0.1, 1.0, 10.0},
				"solver": {"lbfgs", "sgd"},
			})}
		case FamilyDecisionTree:
			c = Candidate{DecisionTreeEstimator{}, ParamGrid(map[string][]any{
				"criterion": {"gini", "entropy", "log_loss"},
			})}
		case FamilyRandomForest:
			c = Candidate{RandomForestEstimator{}, ParamGrid(map[string][]any{
				"n_estimators":      {200, 500, 1000},
				"min_samples_split": {2, 5, 10},
			})}
		case FamilyGradientBoosting:
			c = Candidate{GradientBoostingEstimator{}, ParamGrid(map[string][]any{
				"learning_rate": {0.1, 0.01, 0.05, 0.001},
				"n_estimators":  {64, 128, 256},
			})}
		case FamilyNewtonBoosting:
			c = Candidate{NewtonBoostingEstimator{}, ParamGrid(map[string][]any{
				"learning_rate": {0.1, 0.01, 0.05, 0.001},
				"n_estimators":  {64, 128, 256},
			})}
		case FamilyAdaBoost:
			c = Candidate{AdaBoostEstimator{}, ParamGrid(map[string][]any{
				"learning_rate": {0.1, 0.01, 0.5, 0.001},
				"n_estimators":  {64, 128, 256},
			})}
		case FamilyKNN:
			c = Candidate{KNNEstimator{}, ParamGrid(map[string][]any{
				"n_neighbors": {3, 5, 7, 9},
				"weights":     {"uniform", "distance"},
			})}
		default:
			return nil, fmt.Errorf("model: unknown family %q", f)
		}
		for i, p := range c.Grid {
			c.Grid[i] = p.With("seed", seed)
		}
		out = append(out, c)
	}
	return out, nil
}
