// Package reconcile matches structural groups and flat features across the
// three platforms and classifies each identity's consistency.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/pixelcheck/extract"
	"github.com/teranos/pixelcheck/logger"
)

// Status classifies one identity.
type Status string

const (
	// StatusPerfect: present everywhere with equal instance counts
	StatusPerfect Status = "perfect"
	// StatusStructuralMismatch: present everywhere, instance counts differ
	StatusStructuralMismatch Status = "structural_mismatch"
	// StatusMissing: absent from at least one platform with no alternative found
	StatusMissing Status = "missing"
	// StatusPlatformSpecific: absent somewhere but an equivalent exists there
	StatusPlatformSpecific Status = "platform_specific"
)

// Consistent reports whether the status counts towards the consistent total.
func (s Status) Consistent() bool {
	return s == StatusPerfect || s == StatusPlatformSpecific
}

// Mode names what a Result was computed over.
type Mode string

const (
	ModeGroups   Mode = "groups"
	ModeFeatures Mode = "features"
)

// Alternative is a group or landmark standing in for an identity on a
// platform where the identity itself is missing.
type Alternative struct {
	Platform Platform `json:"platform"`
	Name     string   `json:"name"`
	// Via is "keywords" or "oracle"
	Via string `json:"via"`
}

// Entry is the outcome for one identity.
type Entry struct {
	Name             string        `json:"name"`
	Identity         string        `json:"identity"`
	Signature        string        `json:"signature,omitempty"`
	PlatformsPresent []Platform    `json:"platforms_present"`
	Counts           Counts        `json:"counts"`
	Status           Status        `json:"status"`
	Alternatives     []Alternative `json:"alternatives,omitempty"`
	Detail           string        `json:"detail"`
}

// Result is the comparison outcome. ConsistentIdentities plus
// InconsistentIdentities always equals len(Entries). ConsistentInstances
// sums the Android count of every perfect identity.
type Result struct {
	Mode                   Mode    `json:"mode"`
	Totals                 Counts  `json:"per_platform_totals"`
	ConsistentIdentities   int     `json:"consistent_count"`
	InconsistentIdentities int     `json:"inconsistent_count"`
	ConsistentInstances    int     `json:"consistent_instances"`
	Entries                []Entry `json:"mapping_entries"`
}

// Score is the consistent share of identities in [0,1]; 1 when empty.
func (r Result) Score() float64 {
	n := len(r.Entries)
	if n == 0 {
		return 1
	}
	return float64(r.ConsistentIdentities) / float64(n)
}

// SimilarityMatcher decides whether two differently-keyed groups are the
// same widget. Implementations must not fail; they degrade to a verdict.
type SimilarityMatcher interface {
	AreSimilar(ctx context.Context, a, b extract.StructuralGroup) bool
}

// Reconciler compares the groups of three extractions. The zero value
// reconciles deterministically.
type Reconciler struct {
	// Matcher, when set, is consulted for identities the keyword rescue
	// could not place
	Matcher SimilarityMatcher
	Logger  *zap.SugaredLogger
}

type tally struct {
	name     string
	identity string
	sig      string
	sample   extract.StructuralGroup
	counts   Counts
}

type pool struct {
	groups   []extract.StructuralGroup
	keywords map[string][]string
}

func newPool(res extract.Result) pool {
	p := pool{groups: res.Groups, keywords: map[string][]string{}}
	for _, g := range res.Groups {
		for _, kw := range g.SemanticKeywords {
			p.keywords[kw] = appendUnique(p.keywords[kw], g.Name)
		}
	}
	for _, l := range res.Landmarks {
		for _, kw := range l.Keywords {
			p.keywords[kw] = appendUnique(p.keywords[kw], l.Name)
		}
	}
	return p
}

// Reconcile classifies every identity found in the three extractions.
// Identities missing somewhere are first rescued by shared semantic
// keywords against the missing platform's groups and landmarks; remaining
// ones are offered to the Matcher, all pairs in flight at once so the
// matcher can batch them.
func (r *Reconciler) Reconcile(ctx context.Context, android, ios, web extract.Result) Result {
	log := logger.OrNop(r.Logger)
	inputs := map[Platform]extract.Result{Android: android, IOS: ios, Web: web}

	tallies := map[string]*tally{}
	pools := map[Platform]pool{}
	res := Result{Mode: ModeGroups}

	for _, p := range Platforms {
		in := inputs[p]
		pools[p] = newPool(in)
		res.Totals.add(p, len(in.Groups))
		for _, g := range in.Groups {
			id := IdentityOf(g)
			t, ok := tallies[id]
			if !ok {
				t = &tally{name: g.Name, identity: id, sig: Signature(g.Recipe), sample: g}
				tallies[id] = t
			}
			t.counts.add(p, 1)
		}
	}

	ordered := make([]*tally, 0, len(tallies))
	for _, t := range tallies {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].name != ordered[j].name {
			return ordered[i].name < ordered[j].name
		}
		return ordered[i].identity < ordered[j].identity
	})

	res.Entries = make([]Entry, len(ordered))
	var unresolved []int
	for i, t := range ordered {
		e := Entry{
			Name:             t.name,
			Identity:         t.identity,
			Signature:        t.sig,
			PlatformsPresent: t.counts.Present(),
			Counts:           t.counts,
		}
		switch {
		case t.counts.AllPresent() && t.counts.Equal():
			e.Status = StatusPerfect
			e.Detail = fmt.Sprintf("present on all platforms (%d each)", t.counts.Android)
		case t.counts.AllPresent():
			e.Status = StatusStructuralMismatch
			e.Detail = "instance counts differ: " + t.counts.String()
		default:
			missing := t.counts.Missing()
			if alts, shared, ok := keywordRescue(t.sample, missing, pools); ok {
				e.Status = StatusPlatformSpecific
				e.Alternatives = alts
				e.Detail = fmt.Sprintf("missing on %s; alternative implementation %s (shared keywords: %s)",
					joinPlatforms(missing), describeAlternatives(alts), strings.Join(shared, ", "))
				log.Debugw("Semantic rescue", logger.FieldIdentity, t.identity, "keywords", shared)
			} else {
				e.Status = StatusMissing
				e.Detail = "missing on " + joinPlatforms(missing)
				unresolved = append(unresolved, i)
			}
		}
		res.Entries[i] = e
	}

	if r.Matcher != nil && len(unresolved) > 0 {
		r.oracleRescue(ctx, log, ordered, res.Entries, unresolved, pools)
	}

	for _, e := range res.Entries {
		if e.Status.Consistent() {
			res.ConsistentIdentities++
		} else {
			res.InconsistentIdentities++
		}
		if e.Status == StatusPerfect {
			res.ConsistentInstances += e.Counts.Android
		}
	}

	log.Infow("Reconciled groups",
		logger.FieldCount, len(res.Entries),
		"consistent", res.ConsistentIdentities,
		"inconsistent", res.InconsistentIdentities,
	)
	return res
}

// keywordRescue succeeds when every missing platform has a group or landmark
// sharing a semantic keyword with sample.
func keywordRescue(sample extract.StructuralGroup, missing []Platform, pools map[Platform]pool) ([]Alternative, []string, bool) {
	if len(sample.SemanticKeywords) == 0 {
		return nil, nil, false
	}
	var alts []Alternative
	sharedSet := map[string]struct{}{}
	for _, p := range missing {
		found := false
		for _, kw := range sample.SemanticKeywords {
			names := pools[p].keywords[kw]
			if len(names) == 0 {
				continue
			}
			if !found {
				alts = append(alts, Alternative{Platform: p, Name: names[0], Via: "keywords"})
				found = true
			}
			sharedSet[kw] = struct{}{}
		}
		if !found {
			return nil, nil, false
		}
	}
	shared := make([]string, 0, len(sharedSet))
	for kw := range sharedSet {
		shared = append(shared, kw)
	}
	sort.Strings(shared)
	return alts, shared, true
}

type candidate struct {
	entry    int
	platform Platform
	group    extract.StructuralGroup
	similar  bool
}

// oracleRescue asks the matcher about every same-composition group on each
// missing platform. Calls run concurrently and errgroup joins them.
func (r *Reconciler) oracleRescue(ctx context.Context, log *zap.SugaredLogger, ordered []*tally, entries []Entry, unresolved []int, pools map[Platform]pool) {
	var cands []*candidate
	for _, i := range unresolved {
		sample := ordered[i].sample
		for _, p := range entries[i].Counts.Missing() {
			seen := map[string]struct{}{}
			for _, g := range pools[p].groups {
				id := IdentityOf(g)
				if _, dup := seen[id]; dup || !g.Recipe.SameComposition(sample.Recipe) {
					continue
				}
				seen[id] = struct{}{}
				cands = append(cands, &candidate{entry: i, platform: p, group: g})
			}
		}
	}
	if len(cands) == 0 {
		return
	}

	// Each goroutine writes only its own candidate; Wait publishes the results
	var eg errgroup.Group
	for _, c := range cands {
		eg.Go(func() error {
			c.similar = r.Matcher.AreSimilar(ctx, ordered[c.entry].sample, c.group)
			return nil
		})
	}
	_ = eg.Wait()

	matched := map[int]map[Platform]string{}
	for _, c := range cands {
		if !c.similar {
			continue
		}
		if matched[c.entry] == nil {
			matched[c.entry] = map[Platform]string{}
		}
		if _, ok := matched[c.entry][c.platform]; !ok {
			matched[c.entry][c.platform] = c.group.Name
		}
	}

	for _, i := range unresolved {
		missing := entries[i].Counts.Missing()
		byPlatform := matched[i]
		if len(byPlatform) < len(missing) {
			continue
		}
		alts := make([]Alternative, 0, len(missing))
		for _, p := range missing {
			alts = append(alts, Alternative{Platform: p, Name: byPlatform[p], Via: "oracle"})
		}
		entries[i].Status = StatusPlatformSpecific
		entries[i].Alternatives = alts
		entries[i].Detail = fmt.Sprintf("missing on %s; matched by oracle %s",
			joinPlatforms(missing), describeAlternatives(alts))
		log.Debugw("Oracle rescue", logger.FieldIdentity, entries[i].Identity)
	}
}

func describeAlternatives(alts []Alternative) string {
	parts := make([]string, len(alts))
	for i, a := range alts {
		parts[i] = fmt.Sprintf("%s: %s", a.Platform, a.Name)
	}
	return strings.Join(parts, ", ")
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
