package bus

// BroadcastTopic is joined by every session and carries global notices.
const BroadcastTopic = "broadcast:global"

// UserTopic returns the private delivery topic for an identity.
func UserTopic(owner string) string { return "user:" + owner }
