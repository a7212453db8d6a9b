// Package sortinghat sorts students into one of the four Hogwarts houses with
// one-vs-all logistic regression trained by batch gradient descent.
//
// # Commands
//
//	logreg_train <dataset.csv>                  学習して results/weights.csv を書き出す
//	logreg_predict <dataset.csv> <weights.csv>  results/houses.csv を書き出す
//	evaluate                                    results/dataset_truth.csv と比較する
//	describe <dataset.csv>                      数値列の記述統計
//	histogram | scatter_plot | pair_plot <dataset.csv>
//
// Every command reads an optional YAML file (-config or $SORTINGHAT_CONFIG)
// and SORTINGHAT_* environment overrides. SIGINT prints "Exiting..." and
// exits with status 130.
//
// # Library
//
// The commands are thin wrappers around the packages:
//
//	ds, err := dataset.Load("datasets/dataset_train.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := multiclass.NewTrainer(multiclass.WithIterations(10000)).Fit(ctx, ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = m.Save("results/weights.csv") // + weights_bounds.csv, weights_summary.json
//
//	p, err := multiclass.LoadPredictor("results/weights.csv", multiclass.WithPolicy(multiclass.ArgMax))
//	preds, err := p.Predict(ctx, test)
//
// # Packages
//
//   - house: the four houses in priority order
//   - dataset: CSV loading, imputation and the features x samples design matrix
//   - preprocessing: MinMaxScaler and its bounds file
//   - linear: sigmoid, cost and the gradient descent optimizer
//   - multiclass: one-vs-all Trainer and Predictor
//   - metrics: accuracy and the evaluation report
//   - analysis: describe statistics
//   - visualization: gonum/plot renderings
//   - core/model: weights table, summary and atomic persistence
//   - core/parallel: errgroup helpers
//   - pkg/errors, pkg/log, pkg/config, pkg/telemetry: ambient plumbing
package sortinghat
