package liveness

import (
	"errors"
	"fmt"
	"strings"
)

// MaxContacts is the capacity of the contact registry.
const MaxContacts = 3

var (
	// ErrInvalidContact is returned for contacts that cannot be reached at all.
	ErrInvalidContact = errors.New("invalid contact")
	// errNoReachableField is wrapped when phone, email and chat handle are all blank.
	errNoReachableField = errors.New("at least one of phone, email or chat handle is required")
	// errNoEnabledChannel is wrapped when no channel is enabled for the contact.
	errNoEnabledChannel = errors.New("at least one channel must be enabled")
)

// Contact is an emergency contact.
type Contact struct {
	// ID uniquely identifies the contact.
	ID string `json:"id"`
	// Name is shown to the user and used in duplicate reports.
	Name string `json:"name"`
	// Phone is the phone number as entered by the user.
	Phone string `json:"phone,omitempty"`
	// Email is the email address.
	Email string `json:"email,omitempty"`
	// ChatHandle is the chat-app user handle.
	ChatHandle string `json:"chat_handle,omitempty"`
	// Channels are the channels the user enabled for this contact.
	Channels ChannelSet `json:"channels"`
}

// Clone returns a deep copy of the contact.
func (c *Contact) Clone() *Contact {
	if c == nil {
		return nil
	}

	cloned := *c
	cloned.Channels = c.Channels.Clone()

	return &cloned
}

// Validate reports why the contact is not usable, wrapping ErrInvalidContact.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Phone) == "" &&
		strings.TrimSpace(c.Email) == "" &&
		strings.TrimSpace(c.ChatHandle) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContact, errNoReachableField)
	}

	for _, ch := range c.Channels.Sorted() {
		if !ch.CanSatisfy(c) {
			return fmt.Errorf("%w: channel %s has no destination", ErrInvalidContact, ch)
		}
	}

	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContact, errNoEnabledChannel)
	}

	return nil
}

// IsValid reports whether Validate succeeds.
func (c *Contact) IsValid() bool {
	return c.Validate() == nil
}

// ReachableChannels returns the enabled channels the contact can satisfy.
func (c *Contact) ReachableChannels() []Channel {
	result := make([]Channel, 0, len(c.Channels))

	for _, ch := range c.Channels.Sorted() {
		if ch.CanSatisfy(c) {
			result = append(result, ch)
		}
	}

	return result
}

// DefaultChannels returns the free channels the contact can satisfy.
// A contact reachable only by phone gets SMS.
func DefaultChannels(c *Contact) ChannelSet {
	set := NewChannelSet()

	for _, ch := range AllChannels {
		if !ch.IsPremiumGated() && ch.CanSatisfy(c) {
			set[ch] = struct{}{}
		}
	}

	if len(set) == 0 && ChannelSMS.CanSatisfy(c) {
		set[ChannelSMS] = struct{}{}
	}

	return set
}
