package liveness

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/service/contacts"
)

// timeLayout is the wire format of timestamps.
const timeLayout = time.RFC3339Nano

// Field names shared by requests and responses.
const (
	fieldID            = "id"
	fieldName          = "name"
	fieldPhone         = "phone"
	fieldEmail         = "email"
	fieldChatHandle    = "chat_handle"
	fieldChannels      = "channels"
	fieldTimestamp     = "timestamp"
	fieldHostname      = "hostname"
	fieldUsername      = "username"
	fieldCheckIn       = "check_in"
	fieldStatus        = "status"
	fieldCheckedToday  = "has_checked_in_today"
	fieldElapsedDays   = "elapsed_days"
	fieldTier          = "tier"
	fieldLastCheckIn   = "last_check_in"
	fieldPhase         = "phase"
	fieldNextReminder  = "next_reminder"
	fieldNextEmergency = "next_emergency"
	fieldContactCount  = "contact_count"
	fieldRemaining     = "remaining_slots"
	fieldContacts      = "contacts"
	fieldContact       = "contact"
	fieldOutcome       = "outcome"
	fieldReason        = "reason"
	fieldExistingName  = "existing_name"
	fieldWarning       = "warning"
	fieldPositions     = "positions"
)

var (
	// ErrMalformed is returned when a message lacks a required field or has a bad value.
	ErrMalformed = errors.New("malformed message")
	// ErrInvalidPosition is returned for non-integer or negative positions.
	ErrInvalidPosition = errors.New("position must be a non-negative integer")
)

// AddReply is the decoded AddContact response.
type AddReply struct {
	Result contacts.AddResult
	// Warning is set when the contact was added but not persisted.
	Warning string
}

// RemoveReply is the decoded RemoveContacts response.
type RemoveReply struct {
	Contacts []*domain.Contact
	Warning  string
}

// ActorToStruct encodes the check-in request.
func ActorToStruct(actor *domain.Actor) *structpb.Struct {
	if actor == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldHostname: structpb.NewStringValue(actor.Hostname),
		fieldUsername: structpb.NewStringValue(actor.Username),
	}}
}

// ActorFromStruct decodes the check-in request. Missing fields yield a nil actor.
func ActorFromStruct(s *structpb.Struct) *domain.Actor {
	fields := s.GetFields()

	hostname := fields[fieldHostname].GetStringValue()
	username := fields[fieldUsername].GetStringValue()

	if hostname == "" && username == "" {
		return nil
	}

	return &domain.Actor{Hostname: hostname, Username: username}
}

// ContactToStruct encodes a contact.
func ContactToStruct(c *domain.Contact) *structpb.Struct {
	return &structpb.Struct{Fields: contactFields(c)}
}

func contactFields(c *domain.Contact) map[string]*structpb.Value {
	channels := make([]*structpb.Value, 0, len(c.Channels))
	for _, ch := range c.Channels.Sorted() {
		channels = append(channels, structpb.NewStringValue(ch.String()))
	}

	return map[string]*structpb.Value{
		fieldID:         structpb.NewStringValue(c.ID),
		fieldName:       structpb.NewStringValue(c.Name),
		fieldPhone:      structpb.NewStringValue(c.Phone),
		fieldEmail:      structpb.NewStringValue(c.Email),
		fieldChatHandle: structpb.NewStringValue(c.ChatHandle),
		fieldChannels:   structpb.NewListValue(&structpb.ListValue{Values: channels}),
	}
}

// ContactFromStruct decodes a contact. When no channel list is present the
// free channels the contact can satisfy are enabled.
func ContactFromStruct(s *structpb.Struct) (*domain.Contact, error) {
	fields := s.GetFields()

	c := &domain.Contact{
		ID:         fields[fieldID].GetStringValue(),
		Name:       fields[fieldName].GetStringValue(),
		Phone:      fields[fieldPhone].GetStringValue(),
		Email:      fields[fieldEmail].GetStringValue(),
		ChatHandle: fields[fieldChatHandle].GetStringValue(),
	}

	list, ok := fields[fieldChannels]
	if !ok || list.GetListValue() == nil {
		c.Channels = domain.DefaultChannels(c)

		return c, nil
	}

	c.Channels = domain.NewChannelSet()

	for _, v := range list.GetListValue().GetValues() {
		ch, err := domain.ParseChannel(v.GetStringValue())
		if err != nil {
			return nil, err
		}

		c.Channels[ch] = struct{}{}
	}

	return c, nil
}

// ContactsToList encodes a contact list.
func ContactsToList(list []*domain.Contact) *structpb.Value {
	values := make([]*structpb.Value, 0, len(list))
	for _, c := range list {
		values = append(values, structpb.NewStructValue(ContactToStruct(c)))
	}

	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// ContactsFromList decodes a contact list.
func ContactsFromList(v *structpb.Value) ([]*domain.Contact, error) {
	values := v.GetListValue().GetValues()
	result := make([]*domain.Contact, 0, len(values))

	for i, item := range values {
		c, err := ContactFromStruct(item.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("contact %d: %w", i, err)
		}

		result = append(result, c)
	}

	return result, nil
}

// CheckInToStruct encodes a check-in event.
func CheckInToStruct(e domain.CheckInEvent) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID:        structpb.NewStringValue(e.ID),
		fieldTimestamp: structpb.NewStringValue(e.Timestamp.Format(timeLayout)),
	}}
}

// CheckInFromStruct decodes a check-in event.
func CheckInFromStruct(s *structpb.Struct) (domain.CheckInEvent, error) {
	fields := s.GetFields()

	ts, err := parseTime(fields[fieldTimestamp])
	if err != nil {
		return domain.CheckInEvent{}, err
	}

	return domain.CheckInEvent{ID: fields[fieldID].GetStringValue(), Timestamp: ts}, nil
}

// CheckInReplyToStruct encodes the CheckIn response.
func CheckInReplyToStruct(event domain.CheckInEvent, overview domain.Overview) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCheckIn: structpb.NewStructValue(CheckInToStruct(event)),
		fieldStatus:  structpb.NewStructValue(OverviewToStruct(overview)),
	}}
}

// CheckInReplyFromStruct decodes the CheckIn response.
func CheckInReplyFromStruct(s *structpb.Struct) (domain.CheckInEvent, domain.Overview, error) {
	event, err := CheckInFromStruct(s.GetFields()[fieldCheckIn].GetStructValue())
	if err != nil {
		return domain.CheckInEvent{}, domain.Overview{}, err
	}

	overview, err := OverviewFromStruct(s.GetFields()[fieldStatus].GetStructValue())
	if err != nil {
		return domain.CheckInEvent{}, domain.Overview{}, err
	}

	return event, overview, nil
}

// ContactListToStruct encodes the ListContacts response.
func ContactListToStruct(list []*domain.Contact) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldContacts: ContactsToList(list),
	}}
}

// ContactListFromStruct decodes the ListContacts response.
func ContactListFromStruct(s *structpb.Struct) ([]*domain.Contact, error) {
	return ContactsFromList(s.GetFields()[fieldContacts])
}

// OverviewToStruct encodes the monitor overview.
func OverviewToStruct(o domain.Overview) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldCheckedToday: structpb.NewBoolValue(o.Status.HasCheckedInToday),
		fieldTier:         structpb.NewStringValue(o.Status.Tier.String()),
		fieldPhase:        structpb.NewStringValue(o.Phase),
		fieldContactCount: structpb.NewNumberValue(float64(o.Contacts)),
		fieldRemaining:    structpb.NewNumberValue(float64(o.RemainingSlots)),
	}

	if o.Status.LastCheckIn != nil {
		fields[fieldLastCheckIn] = structpb.NewStructValue(CheckInToStruct(*o.Status.LastCheckIn))
		fields[fieldElapsedDays] = structpb.NewNumberValue(float64(o.Status.ElapsedDays))
	}

	if !o.NextReminder.IsZero() {
		fields[fieldNextReminder] = structpb.NewStringValue(o.NextReminder.Format(timeLayout))
	}

	if !o.NextEmergency.IsZero() {
		fields[fieldNextEmergency] = structpb.NewStringValue(o.NextEmergency.Format(timeLayout))
	}

	return &structpb.Struct{Fields: fields}
}

// OverviewFromStruct decodes the monitor overview.
func OverviewFromStruct(s *structpb.Struct) (domain.Overview, error) {
	fields := s.GetFields()

	tier, ok := domain.ParseTier(fields[fieldTier].GetStringValue())
	if !ok {
		return domain.Overview{}, fmt.Errorf("%w: unknown tier %q", ErrMalformed, fields[fieldTier].GetStringValue())
	}

	o := domain.Overview{
		Status: domain.Status{
			HasCheckedInToday: fields[fieldCheckedToday].GetBoolValue(),
			ElapsedDays:       domain.NeverCheckedIn,
			Tier:              tier,
		},
		Phase:          fields[fieldPhase].GetStringValue(),
		Contacts:       int(fields[fieldContactCount].GetNumberValue()),
		RemainingSlots: int(fields[fieldRemaining].GetNumberValue()),
	}

	if last := fields[fieldLastCheckIn].GetStructValue(); last != nil {
		event, err := CheckInFromStruct(last)
		if err != nil {
			return domain.Overview{}, err
		}

		o.Status.LastCheckIn = &event
		o.Status.ElapsedDays = int(fields[fieldElapsedDays].GetNumberValue())
	}

	var err error

	if v, ok := fields[fieldNextReminder]; ok {
		if o.NextReminder, err = parseTime(v); err != nil {
			return domain.Overview{}, err
		}
	}

	if v, ok := fields[fieldNextEmergency]; ok {
		if o.NextEmergency, err = parseTime(v); err != nil {
			return domain.Overview{}, err
		}
	}

	return o, nil
}

// AddReplyToStruct encodes the AddContact response.
func AddReplyToStruct(reply AddReply) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldOutcome: structpb.NewStringValue(reply.Result.Outcome.String()),
	}

	if reply.Result.Contact != nil {
		fields[fieldContact] = structpb.NewStructValue(ContactToStruct(reply.Result.Contact))
	}

	if reply.Result.ExistingName != "" {
		fields[fieldExistingName] = structpb.NewStringValue(reply.Result.ExistingName)
	}

	if reply.Result.Reason != nil {
		fields[fieldReason] = structpb.NewStringValue(reply.Result.Reason.Error())
	}

	if reply.Warning != "" {
		fields[fieldWarning] = structpb.NewStringValue(reply.Warning)
	}

	return &structpb.Struct{Fields: fields}
}

// AddReplyFromStruct decodes the AddContact response.
func AddReplyFromStruct(s *structpb.Struct) (AddReply, error) {
	fields := s.GetFields()

	outcome, ok := contacts.ParseAddOutcome(fields[fieldOutcome].GetStringValue())
	if !ok {
		return AddReply{}, fmt.Errorf("%w: unknown outcome %q", ErrMalformed, fields[fieldOutcome].GetStringValue())
	}

	reply := AddReply{
		Result: contacts.AddResult{
			Outcome:      outcome,
			ExistingName: fields[fieldExistingName].GetStringValue(),
		},
		Warning: fields[fieldWarning].GetStringValue(),
	}

	if reason := fields[fieldReason].GetStringValue(); reason != "" {
		reply.Result.Reason = fmt.Errorf("%w: %s", domain.ErrInvalidContact, reason)
	}

	if c := fields[fieldContact].GetStructValue(); c != nil {
		contact, err := ContactFromStruct(c)
		if err != nil {
			return AddReply{}, err
		}

		reply.Result.Contact = contact
	}

	return reply, nil
}

// PositionsToStruct encodes the RemoveContacts request.
func PositionsToStruct(positions []int) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(positions))
	for _, p := range positions {
		values = append(values, structpb.NewNumberValue(float64(p)))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldPositions: structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

// PositionsFromStruct decodes the RemoveContacts request.
func PositionsFromStruct(s *structpb.Struct) ([]int, error) {
	values := s.GetFields()[fieldPositions].GetListValue().GetValues()
	positions := make([]int, 0, len(values))

	for _, v := range values {
		n := v.GetNumberValue()
		if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber || n < 0 || n != float64(int(n)) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, v.AsInterface())
		}

		positions = append(positions, int(n))
	}

	return positions, nil
}

// RemoveReplyToStruct encodes the RemoveContacts response.
func RemoveReplyToStruct(reply RemoveReply) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldContacts: ContactsToList(reply.Contacts),
	}

	if reply.Warning != "" {
		fields[fieldWarning] = structpb.NewStringValue(reply.Warning)
	}

	return &structpb.Struct{Fields: fields}
}

// RemoveReplyFromStruct decodes the RemoveContacts response.
func RemoveReplyFromStruct(s *structpb.Struct) (RemoveReply, error) {
	list, err := ContactsFromList(s.GetFields()[fieldContacts])
	if err != nil {
		return RemoveReply{}, err
	}

	return RemoveReply{
		Contacts: list,
		Warning:  s.GetFields()[fieldWarning].GetStringValue(),
	}, nil
}

func parseTime(v *structpb.Value) (time.Time, error) {
	raw := v.GetStringValue()
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}

	ts, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return ts, nil
}
