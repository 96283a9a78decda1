// Package empirical assembles Lotka-Volterra communities from measured
// food-web tables and runs the decomposition pipeline on them.
//
// Three CSV tables describe the web: per-taxon population parameters,
// pairwise trophic links with a seasonal tag, and body masses with
// initial field densities. A YAML manifest locates the tables and fixes
// the assembly parameters. Links absent from the interaction table stay
// NaN in the assembled matrix, which the computability filter reads as
// "never measured" rather than "measured zero".
package empirical
