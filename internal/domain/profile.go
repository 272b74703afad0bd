package domain

// ProfileSnapshot is the cumulative user profile the backend extracts turn by
// turn. The backend is stateless with respect to profile fields: the client
// re-sends the full snapshot on every orchestrate call, so losing a key here
// loses it for the rest of the conversation.
type ProfileSnapshot map[string]any

// ProfileExtractionKey is the one nested sub-mapping that gets merged
// key-by-key instead of being replaced wholesale.
const ProfileExtractionKey = "profil_extraction"

// Clone returns a shallow copy of the snapshot (one level into the
// extraction sub-mapping, matching the merge depth).
func (p ProfileSnapshot) Clone() ProfileSnapshot {
	if p == nil {
		return nil
	}
	out := make(ProfileSnapshot, len(p))
	for k, v := range p {
		if k == ProfileExtractionKey {
			if nested, ok := v.(map[string]any); ok {
				copied := make(map[string]any, len(nested))
				for nk, nv := range nested {
					copied[nk] = nv
				}
				out[k] = copied
				continue
			}
		}
		out[k] = v
	}
	return out
}

// MergeProfileFragment is the profile merge policy: a shallow merge at the top
// level, plus a key-by-key merge one level into the "profil_extraction"
// sub-mapping. Later fragments only add or override the keys they mention.
// It is a pure function: neither input is mutated, and an empty fragment
// returns the previous snapshot unchanged.
func MergeProfileFragment(prev, fragment ProfileSnapshot) ProfileSnapshot {
	if len(fragment) == 0 {
		return prev
	}
	merged := make(ProfileSnapshot, len(prev)+len(fragment))
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range fragment {
		if k == ProfileExtractionKey {
			merged[k] = mergeExtraction(prev[k], v)
			continue
		}
		merged[k] = v
	}
	return merged
}

func mergeExtraction(prev, next any) any {
	nextMap, ok := next.(map[string]any)
	if !ok {
		// Not a mapping: fall back to wholesale replacement.
		return next
	}
	prevMap, _ := prev.(map[string]any)
	out := make(map[string]any, len(prevMap)+len(nextMap))
	for k, v := range prevMap {
		out[k] = v
	}
	for k, v := range nextMap {
		out[k] = v
	}
	return out
}
