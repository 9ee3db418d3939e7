package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/PInfer/pkg/core"
)

func protein(id core.InternalID, posterior float64, peptides ...string) *core.ProteinRecord {
	p := core.NewProteinRecord(id, true, posterior)
	for _, seq := range peptides {
		p.AddPeptide(seq)
	}
	return p
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		set  *core.Set
		want []core.ProteinGroup
	}{
		{
			name: "single protein uses set probability",
			set: &core.Set{Probability: 0.95, Proteins: []*core.ProteinRecord{
				protein(100, 0.5, "PEPTIDEA", "PEPTIDEB"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100}, Probability: 0.95, ModifiedPeptides: 2, DistinctPeptides: 2},
			},
		},
		{
			name: "identical evidence collapses to set probability",
			set: &core.Set{Probability: 0.95, Proteins: []*core.ProteinRecord{
				protein(102, 0.6, "PEPTIDEA", "PEPT(ox)IDEA"),
				protein(100, 0.4, "PEPT(ox)IDEA", "PEPTIDEA"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100, 102}, Probability: 0.95, ModifiedPeptides: 2, DistinctPeptides: 1},
			},
		},
		{
			name: "disjoint evidence splits with own posteriors",
			set: &core.Set{Probability: 0.95, Proteins: []*core.ProteinRecord{
				protein(100, 0.91, "PEPTIDEA"),
				protein(101, 0.52, "PEPTIDEB"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100}, Probability: 0.91, ModifiedPeptides: 1, DistinctPeptides: 1},
				{IDs: []core.InternalID{101}, Probability: 0.52, ModifiedPeptides: 1, DistinctPeptides: 1},
			},
		},
		{
			name: "subset evidence splits",
			set: &core.Set{Probability: 0.95, Proteins: []*core.ProteinRecord{
				protein(100, 0.91, "PEPTIDEA", "PEPTIDEB"),
				protein(101, 0.52, "PEPTIDEA"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100}, Probability: 0.91, ModifiedPeptides: 2, DistinctPeptides: 2},
				{IDs: []core.InternalID{101}, Probability: 0.52, ModifiedPeptides: 1, DistinctPeptides: 1},
			},
		},
		{
			name: "same posterior and evidence merge inside a split set",
			set: &core.Set{Probability: 0.8, Proteins: []*core.ProteinRecord{
				protein(105, 0.7, "PEPTIDEA", "PEPTIDEB"),
				protein(101, 0.3, "PEPTIDEC"),
				protein(103, 0.7, "PEPTIDEB", "PEPTIDEA"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{101}, Probability: 0.3, ModifiedPeptides: 1, DistinctPeptides: 1},
				{IDs: []core.InternalID{103, 105}, Probability: 0.7, ModifiedPeptides: 2, DistinctPeptides: 2},
			},
		},
		{
			name: "posterior bucket split by evidence",
			set: &core.Set{Probability: 0.8, Proteins: []*core.ProteinRecord{
				protein(100, 0.5, "PEPTIDEA"),
				protein(101, 0.5, "PEPTIDEB"),
				protein(102, 0.5, "PEPTIDEA"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100, 102}, Probability: 0.5, ModifiedPeptides: 1, DistinctPeptides: 1},
				{IDs: []core.InternalID{101}, Probability: 0.5, ModifiedPeptides: 1, DistinctPeptides: 1},
			},
		},
		{
			name: "same evidence different posteriors stay apart",
			set: &core.Set{Probability: 0.8, Proteins: []*core.ProteinRecord{
				protein(100, 0.5, "PEPTIDEA"),
				protein(101, 0.4, "PEPTIDEA"),
				protein(102, 0.3, "PEPTIDEB"),
			}},
			want: []core.ProteinGroup{
				{IDs: []core.InternalID{100}, Probability: 0.5, ModifiedPeptides: 1, DistinctPeptides: 1},
				{IDs: []core.InternalID{101}, Probability: 0.4, ModifiedPeptides: 1, DistinctPeptides: 1},
				{IDs: []core.InternalID{102}, Probability: 0.3, ModifiedPeptides: 1, DistinctPeptides: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.set)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduceEmpty(t *testing.T) {
	assert.Nil(t, Reduce(nil))
	assert.Nil(t, Reduce(&core.Set{Probability: 0.9}))
}

func TestReduceIsDeterministic(t *testing.T) {
	build := func() *core.Set {
		return &core.Set{Probability: 0.8, Proteins: []*core.ProteinRecord{
			protein(110, 0.2, "K"), protein(104, 0.9, "A", "B"), protein(1000, 0.2, "K"),
			protein(107, 0.9, "B", "A"), protein(101, 0.5, "C"),
		}}
	}

	first := Reduce(build())
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Reduce(build()))
	}

	keys := make([]string, len(first))
	for i := range first {
		keys[i] = first[i].Key()
	}
	assert.Equal(t, []string{"101", "104;107", "110;1000"}, keys)
}

func TestReduceAll(t *testing.T) {
	sets := []*core.Set{
		{Probability: 0.9, Proteins: []*core.ProteinRecord{protein(100, 0.9, "A")}},
		{Probability: 0.1},
		{Probability: 0.4, Proteins: []*core.ProteinRecord{protein(101, 0.3, "B"), protein(102, 0.2, "C")}},
	}
	groups := ReduceAll(sets)
	require.Len(t, groups, 3)
	assert.Equal(t, "100", groups[0].Key())
	assert.Equal(t, "101", groups[1].Key())
	assert.Equal(t, "102", groups[2].Key())
}
