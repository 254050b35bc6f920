package chat

import "chatsync/internal/common"

// Dedup drops messages whose id already appeared earlier in msgs, keeping
// the first occurrence and the original order.
func Dedup(msgs []common.Message) []common.Message {
	seen := make(map[int64]struct{}, len(msgs))
	out := make([]common.Message, 0, len(msgs))
	for _, m := range msgs {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func filterPair(msgs []common.Message, self, peer string) []common.Message {
	out := make([]common.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Between(self, peer) {
			out = append(out, m)
		}
	}
	return out
}
