package pipeline

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/logging"
)

// Identification is one row of the result table.
type Identification struct {
	Accessions       string // ';'-joined accessions of the group
	Probability      float64
	ModifiedPeptides int
	DistinctPeptides int
}

// Assemble resolves the internal IDs of every group back to accessions.
// An ID missing from the registry fails the whole call. The result is sorted
// by accession key; when two groups resolve to the same key the first one is
// kept.
func Assemble(reg *core.Registry, groups []core.ProteinGroup, log logrus.FieldLogger) ([]Identification, error) {
	log = logging.OrDiscard(log)

	seen := make(map[string]bool, len(groups))
	ids := make([]Identification, 0, len(groups))
	for _, g := range groups {
		accs := make([]string, 0, len(g.IDs))
		for _, id := range g.IDs {
			acc, err := reg.Resolve(id)
			if err != nil {
				return nil, err
			}
			accs = append(accs, acc)
		}

		key := strings.Join(accs, ";")
		if key == "" {
			continue
		}
		if seen[key] {
			log.WithField("group", key).Warn("protein group reported twice, keeping the first")
			continue
		}
		seen[key] = true

		ids = append(ids, Identification{
			Accessions:       key,
			Probability:      g.Probability,
			ModifiedPeptides: g.ModifiedPeptides,
			DistinctPeptides: g.DistinctPeptides,
		})
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Accessions < ids[j].Accessions
	})
	return ids, nil
}
