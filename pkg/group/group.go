// Package group reduces the proteins of a report set to protein groups
package group

import (
	"sort"

	"github.com/ChrisMcGann/PInfer/pkg/core"
)

// Reduce turns the kept proteins of a set into protein groups.
//
// When the set holds a single protein, or all of its proteins share the same
// peptides, the whole set becomes one group reported with the set
// probability. Otherwise proteins are bucketed by posterior probability and
// each bucket is split by peptide evidence; every resulting partition is a
// group reported with its members' posterior probability.
//
// Groups are returned in ascending order of their first internal ID.
func Reduce(set *core.Set) []core.ProteinGroup {
	if set == nil || len(set.Proteins) == 0 {
		return nil
	}

	if sharesEvidence(set.Proteins) {
		return []core.ProteinGroup{newGroup(set.Proteins, set.Probability)}
	}

	var groups []core.ProteinGroup
	for _, bucket := range byPosterior(set.Proteins) {
		for _, part := range byPeptides(bucket) {
			groups = append(groups, newGroup(part, part[0].Posterior))
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].IDs[0] < groups[j].IDs[0]
	})
	return groups
}

// ReduceAll reduces every set in order.
func ReduceAll(sets []*core.Set) []core.ProteinGroup {
	var groups []core.ProteinGroup
	for _, set := range sets {
		groups = append(groups, Reduce(set)...)
	}
	return groups
}

// sharesEvidence reports whether every protein has the first one's peptides.
func sharesEvidence(proteins []*core.ProteinRecord) bool {
	for _, p := range proteins[1:] {
		if !p.SamePeptides(proteins[0]) {
			return false
		}
	}
	return true
}

// byPosterior buckets proteins by posterior probability, keeping the order in
// which each probability first appears.
func byPosterior(proteins []*core.ProteinRecord) [][]*core.ProteinRecord {
	index := make(map[float64]int)
	var buckets [][]*core.ProteinRecord
	for _, p := range proteins {
		i, ok := index[p.Posterior]
		if !ok {
			i = len(buckets)
			index[p.Posterior] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], p)
	}
	return buckets
}

// byPeptides partitions proteins by equality of their peptide sets.
func byPeptides(proteins []*core.ProteinRecord) [][]*core.ProteinRecord {
	index := make(map[string]int)
	var parts [][]*core.ProteinRecord
	for _, p := range proteins {
		key := p.PeptideKey()
		i, ok := index[key]
		if !ok {
			i = len(parts)
			index[key] = i
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], p)
	}
	return parts
}

// newGroup builds a group from proteins sharing the same peptides.
func newGroup(proteins []*core.ProteinRecord, probability float64) core.ProteinGroup {
	ids := make([]core.InternalID, len(proteins))
	for i, p := range proteins {
		ids[i] = p.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	modified, distinct := core.CountPeptides(proteins[0].Peptides())
	return core.ProteinGroup{
		IDs:              ids,
		Probability:      probability,
		ModifiedPeptides: modified,
		DistinctPeptides: distinct,
	}
}
