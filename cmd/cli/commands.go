package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"estimateml/adapters/excel"
	"estimateml/adapters/postgres"
	"estimateml/domain/core"
	domaineval "estimateml/domain/evaluation"
	"estimateml/domain/items"
	"estimateml/internal/dataprep"
	apperrors "estimateml/internal/errors"
	"estimateml/internal/evaluation"
	"estimateml/internal/inference/optimize"
	"estimateml/internal/inference/price"
	"estimateml/internal/inference/recommend"
	"estimateml/internal/tables"
	"estimateml/internal/toolkit"
	"estimateml/internal/training"

	"github.com/spf13/cobra"
)

func readItems(ctx context.Context, a *app, path string) ([]items.Item, error) {
	return excel.NewItemReader(a.logger).ReadItems(ctx, path)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func optionalBudget(cmd *cobra.Command, value float64) *float64 {
	if !cmd.Flags().Changed("budget") {
		return nil
	}
	return &value
}

func newPredictCmd(flags *globalFlags) *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "predict [items-file]",
		Short: "Forecast unit prices for every item in an .xlsx or .csv estimate",
		Long: `Forecast unit prices months ahead using seasonal, regional, volatility and trend adjustments.

Example: estimateml predict estimate.xlsx --months 6`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			batch, err := readItems(ctx, a, args[0])
			if err != nil {
				return err
			}
			preds, err := a.kit.Price.PredictBatch(ctx, batch, months)
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(preds); ok {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "ITEM\tCURRENT\tPREDICTED\tCHANGE\tTREND\tCONFIDENCE\tMODE")
			for _, p := range preds {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.1f%%\t%s\t%.0f%%\t%s\n",
					p.ItemID, p.CurrentPrice, p.PredictedPrice, p.ChangePercent, p.Trend, p.Confidence, p.Mode)
			}
			return w.Flush()
		}),
	}

	cmd.Flags().IntVar(&months, "months", price.DefaultHorizon, "Forecast horizon in months")
	return cmd
}

func newClassifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [description...]",
		Short: "Classify a work description into a category and suggest normatives",
		Long: `Classify free-text work descriptions.

Example: estimateml classify "Штукатурка стен гипсовой смесью 120 м²"`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			res, err := a.kit.Classifier.Classify(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(res); ok {
				return err
			}

			fmt.Printf("Category:    %s / %s\n", res.Category, res.Subcategory)
			fmt.Printf("Confidence:  %.2f\n", res.Confidence)
			if len(res.SuggestedNormatives) > 0 {
				fmt.Printf("Normatives:  %s\n", strings.Join(res.SuggestedNormatives, ", "))
			}
			for _, q := range res.ExtractedEntities.Quantities {
				fmt.Printf("Quantity:    %g %s\n", q.Value, q.Unit)
			}
			if m := res.ExtractedEntities.Materials; len(m) > 0 {
				fmt.Printf("Materials:   %s\n", strings.Join(m, ", "))
			}
			if act := res.ExtractedEntities.Actions; len(act) > 0 {
				fmt.Printf("Actions:     %s\n", strings.Join(act, ", "))
			}
			return nil
		}),
	}
}

func newAnomalyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "anomaly [items-file]",
		Short: "Flag items priced far from their category reference",
		Long: `Score every item against its category's reference prices and against the
estimate itself (batch z-score).

Example: estimateml anomaly estimate.csv`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			batch, err := readItems(ctx, a, args[0])
			if err != nil {
				return err
			}
			res, err := a.kit.Anomaly.DetectBatch(ctx, batch)
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(res); ok {
				return err
			}

			within := dataprep.PrepareAnomalyData(batch)
			w := newTable()
			fmt.Fprintln(w, "ITEM\tPRICE\tSCORE\tZ\tBATCH Z\tEXPECTED\tFLAG")
			for i, r := range res {
				flag := ""
				if r.IsAnomaly {
					flag = string(r.AnomalyType)
				}
				fmt.Fprintf(w, "%s\t%.2f\t%.3f\t%+.2f\t%+.2f\t%.0f-%.0f\t%s\n",
					r.ItemID, r.ActualPrice, r.AnomalyScore, r.ZScore, within[i].ZScore,
					r.ExpectedRange.Min, r.ExpectedRange.Max, flag)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			for _, r := range res {
				if r.IsAnomaly {
					fmt.Printf("⚠️  %s: %s\n", r.ItemID, r.Suggestion)
				}
			}
			return nil
		}),
	}
}

func newOptimizeCmd(flags *globalFlags) *cobra.Command {
	var (
		quality string
		budget  float64
	)

	cmd := &cobra.Command{
		Use:   "optimize [items-file]",
		Short: "Substitute cheaper materials within a quality tolerance",
		Long: `Greedily substitute cheaper alternatives, largest saving first, until the budget is met.

Quality levels: economy (0.30), standard (0.15), strict (0.05), premium (0).

Example: estimateml optimize estimate.xlsx --quality strict --budget 500000`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			batch, err := readItems(ctx, a, args[0])
			if err != nil {
				return err
			}
			res, err := a.kit.Optimizer.Optimize(ctx, batch, optimize.ParseQualityLevel(quality), optionalBudget(a.cmd, budget))
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(res); ok {
				return err
			}

			fmt.Printf("Original total:   %.2f\n", res.OriginalTotal)
			fmt.Printf("Optimized total:  %.2f\n", res.OptimizedTotal)
			fmt.Printf("Savings:          %.2f (%.2f%%)\n", res.Savings, res.SavingsPercent)
			fmt.Printf("Quality impact:   %s\n", res.QualityImpact)
			if len(res.Changes) > 0 {
				w := newTable()
				fmt.Fprintln(w, "\nITEM\tFROM\tTO\tPRICE\tNEW PRICE\tSAVINGS")
				for _, c := range res.Changes {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
						c.ItemID, c.Original, c.Alternative, c.OriginalPrice, c.NewPrice, c.Savings)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			for _, note := range res.Recommendations {
				fmt.Printf("• %s\n", note)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&quality, "quality", string(optimize.Standard), "Quality level: economy|standard|strict|premium")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Target budget; omit to apply every substitution")
	return cmd
}

func newRecommendCmd(flags *globalFlags) *cobra.Command {
	var (
		req       recommend.Request
		budget    float64
		itemsFile string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rule-based recommendations for a project",
		Long: `Produce cost-saving, budget, missing-work, bulk-purchase and regional recommendations.

Example: estimateml recommend --project apartment --area 120 --budget 900000 --region moscow --items estimate.xlsx`,
		Args: cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			if itemsFile != "" {
				batch, err := readItems(ctx, a, itemsFile)
				if err != nil {
					return err
				}
				req.CurrentItems = batch
			}
			req.Budget = optionalBudget(a.cmd, budget)

			recs, err := a.kit.Recommender.GetRecommendations(ctx, req)
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(recs); ok {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No recommendations")
				return nil
			}
			for i, r := range recs {
				fmt.Printf("%d. [%s] %s (confidence %.2f)\n   %s\n", i+1, r.Type, r.Title, r.Confidence, r.Description)
				if r.Savings != nil {
					fmt.Printf("   Potential savings: %.2f\n", *r.Savings)
				}
				for _, it := range r.Items {
					fmt.Printf("   - %s\n", it)
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.ProjectType, "project", "apartment", "Project type: apartment|house|office|bathroom")
	cmd.Flags().Float64Var(&req.TotalArea, "area", 0, "Total area in m²")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Budget; omit for none")
	cmd.Flags().StringVar(&req.Region, "region", "", "Region name or alias")
	cmd.Flags().StringVar(&itemsFile, "items", "", "Optional .xlsx/.csv with current items")
	return cmd
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		req    toolkit.AnalysisRequest
		budget float64
	)

	cmd := &cobra.Command{
		Use:   "analyze [items-file]",
		Short: "Run every model over an estimate",
		Long: `Predict, flag anomalies, optimize and recommend in one pass.

Example: estimateml analyze estimate.xlsx --project apartment --area 80 --region spb --json`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			batch, err := readItems(ctx, a, args[0])
			if err != nil {
				return err
			}
			req.Items = batch
			req.Budget = optionalBudget(a.cmd, budget)

			res, err := a.kit.AnalyzeEstimate(ctx, req)
			if err != nil {
				return err
			}
			if ok, err := a.printJSON(res); ok {
				return err
			}

			flagged := 0
			for _, an := range res.Anomalies {
				if an.IsAnomaly {
					flagged++
				}
			}
			fmt.Printf("📊 Analysis %s\n", res.ID)
			fmt.Printf("Items: %d, total %.2f\n", len(res.Predictions), res.Total)
			fmt.Printf("Anomalies: %d\n", flagged)
			fmt.Printf("Optimized total: %.2f (savings %.2f, impact %s)\n",
				res.Optimization.OptimizedTotal, res.Optimization.Savings, res.Optimization.QualityImpact)
			fmt.Printf("Recommendations: %d\n", len(res.Recommendations))
			for _, r := range res.Recommendations {
				fmt.Printf("  • %s\n", r.Title)
			}
			for _, c := range res.Caveats {
				fmt.Printf("⚠️  %s\n", c)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.ProjectType, "project", "", "Project type: apartment|house|office|bathroom")
	cmd.Flags().Float64Var(&req.TotalArea, "area", 0, "Total area in m²")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Budget; omit for none")
	cmd.Flags().StringVar(&req.Region, "region", "", "Default region for items without one")
	cmd.Flags().StringVar(&req.QualityLevel, "quality", string(optimize.Standard), "Quality level for the optimizer")
	cmd.Flags().IntVar(&req.Months, "months", price.DefaultHorizon, "Forecast horizon in months")
	return cmd
}

func newTrainCmd(flags *globalFlags) *cobra.Command {
	var (
		months      int
		perCategory int
		seed        int64
		folds       int
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the price adjustment weights and the classifier",
		Long: `Train both learnable models. Price histories come from DATABASE_URL when configured,
otherwise a synthetic history is generated. Text samples are always synthetic.

The gradient-descent fit is reported next to a closed-form least-squares baseline,
optionally with k-fold cross-validation.

Example: estimateml train --cv 5 --save`,
		Args: cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			rng := dataprep.NewRand(seed)
			t := a.kit.Tables

			var histories map[string][]items.PricePoint
			if a.prices == nil {
				start := core.MonthStart(time.Now().AddDate(0, -months, 0))
				histories = dataprep.GenerateSyntheticHistories(t, months, start, rng)
				a.logger.Info("generated %d synthetic category histories", len(histories))
			} else {
				var err error
				if histories, err = a.prices.CategoryHistories(ctx); err != nil {
					return err
				}
				if len(histories) == 0 {
					return apperrors.NoData("price_observations is empty")
				}
			}
			samples := dataprep.GenerateSyntheticTextSamples(t, perCategory, rng)

			report, err := a.kit.Train(ctx, histories, samples, "")
			if err != nil {
				return err
			}

			X, y := a.kit.Price.TrainingSamples(histories, "")
			_, olsR2, olsErr := training.FitOLS(X, y)

			var cvSummary string
			if folds > 1 {
				cfg := training.Config{
					Epochs:       a.cfg.Training.Epochs,
					BatchSize:    a.cfg.Training.BatchSize,
					LearningRate: a.cfg.Training.LearningRate,
					Seed:         seed,
				}
				cv, err := evaluation.CrossValidateRegression(ctx, X, y, func() evaluation.RegressionModel {
					return training.NewLinearRegressor(price.NumAdjustmentFeatures, cfg)
				}, evaluation.CVOptions{K: folds, Parallelism: folds})
				if err != nil {
					return err
				}
				cvSummary = summarizeCV(cv.Folds)
			}

			if a.flags.jsonOutput {
				_, err := a.printJSON(trainSummary(report, len(X), olsR2, olsErr, cvSummary))
				return err
			}

			fmt.Printf("Price predictor:  success=%v loss=%.6f r2=%.3f epochs=%d (%s)\n",
				report.Price.Success, report.Price.Loss, report.Price.Accuracy, report.Price.Epochs, report.Price.Duration)
			if olsErr == nil {
				fmt.Printf("OLS baseline:     r2=%.3f on %d samples\n", olsR2, len(X))
			} else {
				fmt.Printf("OLS baseline:     unavailable (%v)\n", olsErr)
			}
			if cvSummary != "" {
				fmt.Printf("Cross-validation: %s\n", cvSummary)
			}
			fmt.Printf("Work classifier:  success=%v loss=%.4f accuracy=%.3f epochs=%d (%s)\n",
				report.Classifier.Success, report.Classifier.Loss, report.Classifier.Accuracy, report.Classifier.Epochs, report.Classifier.Duration)

			if save {
				if err := a.kit.SaveModels(ctx); err != nil {
					return err
				}
				fmt.Println("✅ weights saved")
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&months, "months", 36, "Months of synthetic history per category")
	cmd.Flags().IntVar(&perCategory, "per-category", 30, "Synthetic text samples per category")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for synthetic data and shuffling")
	cmd.Flags().IntVar(&folds, "cv", 0, "Run k-fold cross-validation of the price model (k>=2)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist weights to MODEL_STORE_PATH")
	return cmd
}

// trainSummary is the --json payload of train; an OLS failure replaces olsR2 with olsError
func trainSummary(report toolkit.TrainReport, samples int, olsR2 float64, olsErr error, cv string) map[string]interface{} {
	out := map[string]interface{}{
		"report":  report,
		"samples": samples,
	}
	if olsErr != nil {
		out["olsError"] = olsErr.Error()
	} else {
		out["olsR2"] = olsR2
	}
	if cv != "" {
		out["cv"] = cv
	}
	return out
}

func summarizeCV(folds []domaineval.Report) string {
	var r2 []float64
	for _, f := range folds {
		if m, ok := f.(domaineval.RegressionMetrics); ok {
			r2 = append(r2, m.R2)
		}
	}
	if len(r2) == 0 {
		return "no folds"
	}
	ci, err := evaluation.ConfidenceInterval(r2, 0.95)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%d folds, mean r2=%.3f (95%% CI %.3f..%.3f)", len(r2), ci.Mean, ci.Lower, ci.Upper)
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show model readiness and stored weights",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, a *app, _ []string) error {
			statuses := a.kit.Status()
			if ok, err := a.printJSON(map[string]interface{}{"ready": a.kit.Ready(), "models": statuses}); ok {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "MODEL\tVERSION\tSTATUS\tLOADED\tACCURACY")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%.3f\n", s.Name, s.Version, s.Status, s.IsLoaded, s.Accuracy)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\nReady: %v\n", a.kit.Ready())

			if a.store != nil {
				metas, err := a.store.List(ctx)
				if err != nil {
					return err
				}
				for _, m := range metas {
					fmt.Printf("stored %s v%s accuracy=%.3f saved %s\n", m.Name, m.Version, m.Accuracy, m.SavedAt.Format(time.RFC3339))
				}
			}
			return nil
		}),
	}
}

func newSynthCmd(flags *globalFlags) *cobra.Command {
	var (
		count  int
		seed   int64
		region string
	)

	cmd := &cobra.Command{
		Use:   "synth [out-file]",
		Short: "Write a synthetic estimate to .xlsx or .csv",
		Long: `Generate a synthetic estimate from the built-in reference prices. A few items are
deliberately mispriced so the anomaly detector has something to find.

Example: estimateml synth sample.xlsx --items 25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := synthesizeEstimate(tables.Default(), count, region, dataprep.NewRand(seed))
			if err := excel.WriteItems(args[0], batch); err != nil {
				return err
			}
			fmt.Printf("✅ %d items written to %s\n", len(batch), args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "items", 20, "Number of line items")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().StringVar(&region, "region", "", "Region written to every item")
	return cmd
}

// synthesizeEstimate draws items from categories with reference prices; every seventh
// item is priced at three times its reference
func synthesizeEstimate(t *tables.Tables, n int, region string, rng *rand.Rand) []items.Item {
	keys := dataprep.CategoryKeys(t)
	out := make([]items.Item, 0, n)
	for i := 0; len(keys) > 0 && i < n; i++ {
		key := keys[rng.Intn(len(keys))]
		ref := t.BaselinePrices[key]
		if len(ref) == 0 {
			continue
		}
		c, _ := t.Category(key)
		p := ref[rng.Intn(len(ref))] * (0.9 + 0.2*rng.Float64())
		if i%7 == 6 {
			p *= 3
		}
		out = append(out, items.Item{
			ID:       fmt.Sprintf("S%03d", i+1),
			Name:     c.Name,
			Category: key,
			Price:    math.Round(p*100) / 100,
			Quantity: float64(10 + rng.Intn(190)),
			Unit:     "м²",
			Region:   region,
		})
	}
	return out
}

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var (
		reference bool
		source    string
	)

	cmd := &cobra.Command{
		Use:   "ingest [items-file...]",
		Short: "Load estimate prices into the PostgreSQL price history",
		Long: `Record every item price as an observation dated today (or at its history dates when
the file carries them). With --reference the prices are also added as active
reference prices of their category, which the anomaly detector picks up on the next run.

Requires DATABASE_URL.

Example: estimateml ingest q1.xlsx q2.xlsx --reference`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(flags, func(ctx context.Context, a *app, args []string) error {
			if a.prices == nil {
				return apperrors.ConfigInvalid("ingest requires DATABASE_URL")
			}

			now := time.Now().UTC()
			migrated, skipped := 0, 0
			for _, path := range args {
				batch, err := readItems(ctx, a, path)
				if err != nil {
					a.logger.Warn("skipping %s: %v", path, err)
					skipped++
					continue
				}

				var obs []postgres.Observation
				byCategory := make(map[string][]float64)
				for _, it := range batch {
					category := it.Category
					if key, ok := a.kit.Tables.ResolveCategory(category); ok {
						category = key
					} else if key, ok := a.kit.Tables.ResolveCategory(it.Name); ok {
						category = key
					}
					if category == "" {
						continue
					}
					obs = append(obs, postgres.Observation{ItemID: it.ID, Category: category, Region: it.Region, Price: it.Price, ObservedAt: now})
					for _, h := range it.History {
						obs = append(obs, postgres.Observation{ItemID: it.ID, Category: category, Region: it.Region, Price: h.Price, ObservedAt: h.Date})
					}
					byCategory[category] = append(byCategory[category], it.Price)
				}

				if err := a.prices.RecordObservations(ctx, obs); err != nil {
					return err
				}
				if reference {
					src := source
					if src == "" {
						src = path
					}
					for category, prices := range byCategory {
						if err := a.prices.AddReferencePrices(ctx, category, src, prices); err != nil {
							return err
						}
					}
				}
				a.logger.Info("ingested %d observations from %s", len(obs), path)
				migrated += len(obs)
			}

			fmt.Printf("Ingestion completed: %d observations recorded, %d files skipped\n", migrated, skipped)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&reference, "reference", false, "Also store prices as category reference prices")
	cmd.Flags().StringVar(&source, "source", "", "Source label for reference prices (defaults to the file path)")
	return cmd
}
