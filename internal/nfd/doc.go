// Package nfd decomposes invasion growth rates of a Lotka-Volterra
// community into niche and fitness differences, following the
// definitions of Spaak & De Laender (2020).
//
// The entry points are FindComputable, which iteratively prunes a
// community down to a subset whose full and leave-one-out equilibria
// are all feasible, and Decompose, which computes per-species niche
// differences, fitness differences and pairwise conversion factors on
// such a subset. Species whose decomposition cannot be resolved are
// reported with StatusUndefined and a reason rather than failing the
// whole community.
package nfd
