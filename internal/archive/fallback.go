package archive

import "sessionkeeper/internal/domain"

// MergeFallbacks appends a lightweight placeholder session for every
// pinned id of the source that is absent from sessions but has a
// committed, present archive. This keeps a session visible in the catalog
// after its originating tool deletes the upstream file. The result is
// re-sorted most recently modified first.
func (m *Manager) MergeFallbacks(sessions []*domain.Session, source domain.Source) []*domain.Session {
	present := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		present[s.ID] = true
	}

	for _, info := range m.Pinned(source) {
		if present[info.SessionID] {
			continue
		}
		if !m.committedPresent(info) {
			continue
		}
		sessions = append(sessions, &domain.Session{
			ID:        info.SessionID,
			Source:    info.Source,
			StartedAt: info.StartedAt,
			EndedAt:   info.EndedAt,
			Model:     info.Model,
			FilePath:  m.DataPath(info),
			FileSize:  info.EstimatedSize,
			CWD:       info.CWD,
			Repo:      domain.RepoFromCWD(info.CWD),
			Summary:   info.Title,
			Archived:  true,
		})
	}

	domain.SortByRecency(sessions)
	return sessions
}
