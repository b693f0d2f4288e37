package reconcile

// Merge renders a transcript from the server page and the local pending
// items. Server messages keep their order; pending items are interleaved by
// CreatedAt, after server messages with the same timestamp. A server user
// turn that a pending item already stands in for is hidden.
func Merge(server []Message, pending []Pending) []Item {
	shadowed := make(map[string]struct{}, len(pending))
	for _, p := range pending {
		if p.ServerMessageID != nil && p.Status != StatusSuccess {
			shadowed[p.ServerMessageID.String()] = struct{}{}
		}
	}

	items := make([]Item, 0, len(server)+len(pending))
	i, j := 0, 0
	for i < len(server) || j < len(pending) {
		if i < len(server) {
			msg := server[i]
			if _, hidden := shadowed[msg.ID.String()]; hidden && msg.Role == RoleUser {
				i++
				continue
			}
			if j >= len(pending) || !pending[j].CreatedAt.Before(msg.CreatedAt) {
				items = append(items, Confirmed{Message: msg})
				i++
				continue
			}
		}
		items = append(items, pending[j])
		j++
	}
	return items
}
