package reconcile

import (
	"fmt"
	"sort"

	"github.com/teranos/pixelcheck/extract"
)

// ReconcileFeatures compares flat features by presence only: a feature is
// keyed by category and name, counts are 0 or 1, and there is no rescue.
// Totals are the number of distinct features per platform.
func ReconcileFeatures(android, ios, web extract.Result) Result {
	inputs := map[Platform]extract.Result{Android: android, IOS: ios, Web: web}
	res := Result{Mode: ModeFeatures}

	type presence struct {
		feature extract.Feature
		counts  Counts
	}
	byKey := map[string]*presence{}
	for _, p := range Platforms {
		features := inputs[p].Features()
		res.Totals.add(p, len(features))
		for _, f := range features {
			key := string(f.Category) + "|" + f.Name
			pr, ok := byKey[key]
			if !ok {
				pr = &presence{feature: f}
				byKey[key] = pr
			}
			if pr.counts.Of(p) == 0 {
				pr.counts.add(p, 1)
			}
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := byKey[keys[i]].feature, byKey[keys[j]].feature
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Category < b.Category
	})

	res.Entries = make([]Entry, 0, len(keys))
	for _, k := range keys {
		pr := byKey[k]
		e := Entry{
			Name:             pr.feature.Name,
			Identity:         k,
			PlatformsPresent: pr.counts.Present(),
			Counts:           pr.counts,
		}
		if pr.counts.AllPresent() {
			e.Status = StatusPerfect
			e.Detail = fmt.Sprintf("%s present on all platforms", pr.feature.Category)
			res.ConsistentIdentities++
			res.ConsistentInstances++
		} else {
			e.Status = StatusMissing
			e.Detail = "missing on " + joinPlatforms(pr.counts.Missing())
			res.InconsistentIdentities++
		}
		res.Entries = append(res.Entries, e)
	}
	return res
}
