package liveness

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Channel is a delivery medium through which a contact may be reached.
type Channel int

const (
	// ChannelEmail delivers to the contact's email address.
	ChannelEmail Channel = iota + 1
	// ChannelSMS delivers a text message to the contact's phone.
	ChannelSMS
	// ChannelWhatsApp delivers through WhatsApp to the contact's phone.
	ChannelWhatsApp
	// ChannelChat delivers through a chat app to the contact's handle.
	ChannelChat
)

// AllChannels lists every channel in display order.
//
//nolint:gochecknoglobals // Closed enum.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelChat}

// ErrUnknownChannel is returned by ParseChannel for unrecognized names.
var ErrUnknownChannel = errors.New("unknown channel")

// String returns the wire name of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	case ChannelWhatsApp:
		return "whatsapp"
	case ChannelChat:
		return "chat"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel converts a wire name into a Channel.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email":
		return ChannelEmail, nil
	case "sms":
		return ChannelSMS, nil
	case "whatsapp":
		return ChannelWhatsApp, nil
	case "chat", "telegram":
		return ChannelChat, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// IsPremiumGated reports whether the channel is only available on the paid tier.
func (c Channel) IsPremiumGated() bool {
	return c == ChannelSMS || c == ChannelWhatsApp
}

// Destination returns the address the channel delivers to for contact,
// or an empty string when the contact lacks it.
func (c Channel) Destination(contact *Contact) string {
	if contact == nil {
		return ""
	}

	switch c {
	case ChannelEmail:
		return strings.TrimSpace(contact.Email)
	case ChannelSMS, ChannelWhatsApp:
		return strings.TrimSpace(contact.Phone)
	case ChannelChat:
		return strings.TrimSpace(contact.ChatHandle)
	default:
		return ""
	}
}

// CanSatisfy reports whether contact has what the channel needs.
func (c Channel) CanSatisfy(contact *Contact) bool {
	return c.Destination(contact) != ""
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	if !slices.Contains(AllChannels, c) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Channel) UnmarshalText(text []byte) error {
	parsed, err := ParseChannel(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// ChannelSet is an unordered set of channels.
type ChannelSet map[Channel]struct{}

// NewChannelSet builds a set from the given channels.
func NewChannelSet(channels ...Channel) ChannelSet {
	set := make(ChannelSet, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}

	return set
}

// Has reports membership.
func (s ChannelSet) Has(c Channel) bool {
	_, ok := s[c]

	return ok
}

// Sorted returns the channels in AllChannels order.
func (s ChannelSet) Sorted() []Channel {
	result := make([]Channel, 0, len(s))

	for _, ch := range AllChannels {
		if s.Has(ch) {
			result = append(result, ch)
		}
	}

	return result
}

// Clone returns a copy of the set.
func (s ChannelSet) Clone() ChannelSet {
	if s == nil {
		return nil
	}

	return NewChannelSet(s.Sorted()...)
}

// MarshalJSON encodes the set as a sorted list of names.
func (s ChannelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of channel names.
func (s *ChannelSet) UnmarshalJSON(data []byte) error {
	var channels []Channel
	if err := json.Unmarshal(data, &channels); err != nil {
		return err
	}

	*s = NewChannelSet(channels...)

	return nil
}
