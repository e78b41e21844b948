// Package dupes groups catalog files that carry the same recording and
// selects the single keeper per group. Grouping keys on the acoustic
// fingerprint when one exists and falls back to the normalized
// artist/title signature.
package dupes

import (
	"sort"

	"tonearm/internal/catalog"
	"tonearm/internal/identify"
	"tonearm/internal/quality"
	"tonearm/internal/textutil"
)

// Member is one file inside a duplicate group with its selection rank.
// The keeper holds rank 1; rejected members rank 2..n in descending
// quality order.
type Member struct {
	File  *catalog.File
	Score quality.Score
	Rank  int
}

// Group is a set of files judged to be the same recording.
type Group struct {
	Key     string
	Members []Member
}

// Keeper returns the rank-1 member.
func (g Group) Keeper() Member {
	return g.Members[0]
}

// Rejected returns the members losing to the keeper.
func (g Group) Rejected() []Member {
	return g.Members[1:]
}

// ReclaimableBytes sums the sizes of the rejected members.
func (g Group) ReclaimableBytes() int64 {
	var total int64
	for _, member := range g.Rejected() {
		total += member.File.Size
	}
	return total
}

// Grouper partitions files into duplicate groups.
type Grouper struct {
	aliases   *textutil.AliasTable
	stopWords []string
}

// NewGrouper constructs a grouper over the configured alias table and
// signature stop words.
func NewGrouper(aliases *textutil.AliasTable, stopWords []string) *Grouper {
	return &Grouper{aliases: aliases, stopWords: stopWords}
}

// Group partitions files and orders each group's members keeper-first.
// Files without a fingerprint or a usable metadata signature are never
// grouped; treating them as unique is the non-destructive choice. Singleton
// keys produce no group. Output order is deterministic: groups sort by key,
// members by quality.
func (g *Grouper) Group(files []*catalog.File) []Group {
	buckets := make(map[string][]*catalog.File)
	for _, file := range files {
		key := g.key(file)
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], file)
	}

	groups := make([]Group, 0, len(buckets))
	for key, members := range buckets {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{Key: key, Members: rank(members)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// key derives the grouping key for one file. Fingerprints are authoritative;
// the text signature only stands in when fingerprinting was unavailable.
func (g *Grouper) key(file *catalog.File) string {
	if file.Fingerprint != "" {
		return "fp:" + file.Fingerprint
	}
	record := identify.RecordFromJSON(file.MetadataJSON)
	if !record.Complete() {
		return ""
	}
	artist := g.aliases.Canonical(record.Artist)
	signature := textutil.Signature(artist, record.Title, g.stopWords)
	if signature == "|" {
		return ""
	}
	return "sig:" + signature
}

// rank orders members best-first and assigns ranks. Quality score decides;
// format preference breaks score ties; path breaks exact ties so reruns
// pick the same keeper.
func rank(members []*catalog.File) []Member {
	ranked := make([]Member, 0, len(members))
	for _, file := range members {
		ranked = append(ranked, Member{
			File:  file,
			Score: quality.ScoreFromJSON(file.QualityJSON),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score.FinalScore != b.Score.FinalScore {
			return a.Score.FinalScore > b.Score.FinalScore
		}
		if a.Score.FormatRank != b.Score.FormatRank {
			return a.Score.FormatRank < b.Score.FormatRank
		}
		return a.File.Path < b.File.Path
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
