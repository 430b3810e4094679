package services

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// Proposal is one plugin's metadata contribution.
type Proposal struct {
	Plugin   string
	Metadata domain.Metadata
}

// MergeMetadata merges the proposals of every interface in registry order and
// applies override last.
func MergeMetadata(ifaces *Interfaces, override domain.Metadata) (domain.Metadata, error) {
	return Merge(ifaces.Proposals(), override)
}

// Merge deep-merges proposals in order, then applies override.
//
// Nested mappings merge key by key. Overlapping leaves with identical values are
// accepted; divergent leaves, or a mapping meeting a leaf, are conflicts and the
// earlier value is kept. The override always wins. Conflicts at paths the
// override does not cover fail with *domain.MetadataConflictError.
func Merge(proposals []Proposal, override domain.Metadata) (domain.Metadata, error) {
	m := &merger{
		merged:  domain.Metadata{},
		owners:  make(map[string]string),
		indexOf: make(map[string]int),
	}
	for _, p := range proposals {
		tree, err := domain.NormaliseMetadata(p.Metadata)
		if err != nil {
			return nil, &domain.PluginError{Plugin: p.Plugin, Path: "metadata", Err: err}
		}
		m.mergeInto(m.merged, tree, "", p.Plugin)
	}

	ov, err := domain.NormaliseMetadata(override)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata override: %w", domain.ErrInvalidInput, err)
	}
	applyOverride(m.merged, ov)

	var unresolved []domain.MetadataConflict
	for _, c := range m.conflicts {
		if !covered(ov, c.Path) {
			unresolved = append(unresolved, c)
		}
	}
	if len(unresolved) > 0 {
		return nil, &domain.MetadataConflictError{Conflicts: unresolved}
	}
	return m.merged, nil
}

type merger struct {
	merged domain.Metadata
	// owners records the plugin that first wrote each path.
	owners    map[string]string
	conflicts []domain.MetadataConflict
	indexOf   map[string]int
}

func (m *merger) mergeInto(dst, src domain.Metadata, prefix, plugin string) {
	for _, key := range src.Keys() {
		path := domain.JoinPath(prefix, key)
		sv := src[key]

		dv, exists := dst[key]
		if !exists {
			dst[key] = domain.CloneValue(sv)
			m.owners[path] = plugin
			continue
		}

		dm, dstIsMap := domain.AsMap(dv)
		sm, srcIsMap := domain.AsMap(sv)
		if dstIsMap && srcIsMap {
			m.mergeInto(dm, sm, path, plugin)
			continue
		}
		if reflect.DeepEqual(dv, sv) {
			continue
		}
		m.conflict(path, plugin, dv, sv)
	}
}

func (m *merger) conflict(path, plugin string, existing, proposed any) {
	if i, ok := m.indexOf[path]; ok {
		m.conflicts[i].Plugins = append(m.conflicts[i].Plugins, plugin)
		m.conflicts[i].Values = append(m.conflicts[i].Values, proposed)
		return
	}
	m.indexOf[path] = len(m.conflicts)
	m.conflicts = append(m.conflicts, domain.MetadataConflict{
		Path:    path,
		Plugins: []string{m.ownerOf(path), plugin},
		Values:  []any{existing, proposed},
	})
}

// ownerOf returns the plugin that wrote path or its nearest written ancestor.
func (m *merger) ownerOf(path string) string {
	segs := domain.SplitPath(path)
	for i := len(segs); i > 0; i-- {
		p := ""
		for _, s := range segs[:i] {
			p = domain.JoinPath(p, s)
		}
		if owner, ok := m.owners[p]; ok {
			return owner
		}
	}
	return ""
}

// applyOverride writes src over dst. Mappings merge; everything else replaces.
func applyOverride(dst, src domain.Metadata) {
	for key, sv := range src {
		sm, srcIsMap := domain.AsMap(sv)
		if dm, ok := domain.AsMap(dst[key]); ok && srcIsMap {
			applyOverride(dm, sm)
			continue
		}
		dst[key] = domain.CloneValue(sv)
	}
}

// covered reports whether override decides the value at path: either it sets
// path itself or replaces an ancestor with a leaf.
func covered(override domain.Metadata, path string) bool {
	var cur any = map[string]any(override)
	for _, seg := range domain.SplitPath(path) {
		node, ok := domain.AsMap(cur)
		if !ok {
			return true
		}
		cur, ok = node[seg]
		if !ok {
			return false
		}
	}
	return true
}

// PluginMetadata returns the merged subtree relevant to one plugin: every
// top-level section the plugin proposed, plus a section named after the plugin
// when present. The result is never nil.
func PluginMetadata(merged domain.Metadata, proposal Proposal) domain.Metadata {
	out := domain.Metadata{}
	for _, section := range proposal.Metadata.Keys() {
		if v, ok := merged[section]; ok {
			out[section] = domain.CloneValue(v)
		}
	}
	if v, ok := merged[proposal.Plugin]; ok {
		out[proposal.Plugin] = domain.CloneValue(v)
	}
	return out
}

// SessionFromMetadata derives the document header from the "NWBFile" and
// "Subject" sections. Without an explicit identifier the header gets a
// name-based UUID over its own content, so identical inputs always produce
// identical documents.
func SessionFromMetadata(merged domain.Metadata) (domain.Session, error) {
	nwb := merged.Section("NWBFile").Clone()
	subject := merged.Section("Subject").Clone()

	session := domain.Session{
		Identifier:  stringField(nwb, "identifier"),
		Description: stringField(nwb, "session_description"),
		StartTime:   stringField(nwb, "session_start_time"),
	}
	if session.Description == "" {
		session.Description = "no description"
	}
	if len(nwb) > 0 {
		session.Extra = nwb
	}
	if len(subject) > 0 {
		session.Subject = subject
	}

	if session.Identifier == "" {
		raw, err := json.Marshal(map[string]any{
			"description": session.Description,
			"start_time":  session.StartTime,
			"extra":       session.Extra,
			"subject":     session.Subject,
		})
		if err != nil {
			return domain.Session{}, fmt.Errorf("encoding session: %w", err)
		}
		session.Identifier = uuid.NewSHA1(uuid.NameSpaceURL, raw).String()
	}
	return session, nil
}

// stringField removes key from m and returns its value as a string.
func stringField(m domain.Metadata, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// sortedNames returns the keys of a map in order.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
