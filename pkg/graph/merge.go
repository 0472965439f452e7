package graph

import (
	"sort"
	"strings"

	"github.com/graphloom/graphloom/pkg/common"
)

// entityKey dedups entities across chunks. Two mentions are the same
// entity when surface name and type match case-insensitively.
func entityKey(e common.Entity) string {
	return strings.ToLower(e.Text) + "|" + string(e.Type)
}

func relationKey(r common.Relation) string {
	return strings.ToLower(r.Subject.Text) + "|" + strings.ToLower(r.Predicate) + "|" + strings.ToLower(r.Object.Text)
}

// mergeEntities folds src into dst. On a key collision the occurrence
// with the higher confidence wins and aliases are unioned.
func mergeEntities(dst []common.Entity, src []common.Entity) []common.Entity {
	index := make(map[string]int, len(dst))
	for i, e := range dst {
		index[entityKey(e)] = i
	}
	for _, e := range src {
		key := entityKey(e)
		i, ok := index[key]
		if !ok {
			index[key] = len(dst)
			dst = append(dst, e)
			continue
		}
		kept := dst[i]
		if e.Confidence > kept.Confidence {
			e.Aliases = unionAliases(e.Aliases, kept.Aliases)
			dst[i] = e
		} else {
			kept.Aliases = unionAliases(kept.Aliases, e.Aliases)
			dst[i] = kept
		}
	}
	return dst
}

// mergeRelations folds src into dst keyed by (subject, predicate, object),
// keeping the higher-confidence occurrence.
func mergeRelations(dst []common.Relation, src []common.Relation) []common.Relation {
	index := make(map[string]int, len(dst))
	for i, r := range dst {
		index[relationKey(r)] = i
	}
	for _, r := range src {
		key := relationKey(r)
		i, ok := index[key]
		if !ok {
			index[key] = len(dst)
			dst = append(dst, r)
			continue
		}
		if r.Confidence > dst[i].Confidence {
			dst[i] = r
		}
	}
	return dst
}

// mergeAttributes folds src into dst per owning entity. Within one entity
// an attribute name appears once; the higher-confidence version wins.
func mergeAttributes(
	dst map[string][]common.Attribute,
	src map[string][]common.Attribute,
) map[string][]common.Attribute {
	if dst == nil {
		dst = make(map[string][]common.Attribute, len(src))
	}
	for owner, attrs := range src {
		existing := dst[owner]
		index := make(map[string]int, len(existing))
		for i, a := range existing {
			index[strings.ToLower(a.Name)] = i
		}
		for _, a := range attrs {
			key := strings.ToLower(a.Name)
			i, ok := index[key]
			if !ok {
				index[key] = len(existing)
				existing = append(existing, a)
				continue
			}
			if a.Confidence > existing[i].Confidence {
				existing[i] = a
			}
		}
		dst[owner] = existing
	}
	return dst
}

func unionAliases(a []string, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
