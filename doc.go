// Package biomark implements the analysis core of a biomarker discovery
// service: rank-based fusion of feature importance scores across scoring
// methods, shared JSON result stores for multi-process analysis runs, and
// leakage-safe cross-validated training and selection of classifier
// candidates.
//
// # Packages
//
//   - ranking: dense rank conversion and rank fusion (rrf, rank_product,
//     weighted_borda, sum) with per-class-pair CSV tables
//   - store: merged, lock-guarded JSON artifacts shared between processes
//   - evaluation: stratified splits, grid search with per-fold preprocessing
//     refits, model reports and best-model selection
//   - preprocessing: imputation, scaling and pipelines refit per fold
//   - linear_model, naive_bayes: bundled classifier candidates
//   - metrics: classification metrics including tie-aware ROC-AUC
//
// The biomark command under cmd/biomark exposes the ranking and training
// flows for orchestration by external services.
package biomark
