package domain

// Channel is the sales channel a transaction was recorded on.
type Channel string

const (
	// ChannelAll matches every channel when used in a filter.
	ChannelAll      Channel = ""
	ChannelWeb      Channel = "web"
	ChannelPhysical Channel = "physical"
)

// String returns the string representation of Channel.
// ChannelAll renders as "all".
func (c Channel) String() string {
	if c == ChannelAll {
		return "all"
	}
	return string(c)
}

// IsValid checks if the channel is a known value (ChannelAll included).
func (c Channel) IsValid() bool {
	return c == ChannelAll || c == ChannelWeb || c == ChannelPhysical
}

// ParseChannel converts user input ("", "all", "web", "physical") to a Channel.
// Returns false for unknown values.
func ParseChannel(s string) (Channel, bool) {
	switch s {
	case "", "all":
		return ChannelAll, true
	case string(ChannelWeb):
		return ChannelWeb, true
	case string(ChannelPhysical):
		return ChannelPhysical, true
	default:
		return "", false
	}
}
