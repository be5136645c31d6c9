package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
	"github.com/oshokin/still-alive/internal/repository/kv"
)

var (
	// ErrNotPersisted wraps persistence failures of an already applied change.
	ErrNotPersisted = errors.New("change applied in memory but not persisted")
	// ErrDuplicate is returned by Update when the new fields clash with another contact.
	ErrDuplicate = errors.New("duplicate contact")
)

// AddOutcome classifies the result of Add.
type AddOutcome int

const (
	// AddSuccess means the contact was appended.
	AddSuccess AddOutcome = iota
	// AddLimitReached means the registry already holds domain.MaxContacts.
	AddLimitReached
	// AddDuplicate means an existing contact shares the phone or email.
	AddDuplicate
	// AddInvalid means the contact cannot be reached through any field.
	AddInvalid
)

// String returns the outcome name.
func (o AddOutcome) String() string {
	switch o {
	case AddSuccess:
		return "success"
	case AddLimitReached:
		return "limit_reached"
	case AddDuplicate:
		return "duplicate"
	case AddInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ParseAddOutcome is the inverse of AddOutcome.String.
func ParseAddOutcome(s string) (AddOutcome, bool) {
	for _, o := range []AddOutcome{AddSuccess, AddLimitReached, AddDuplicate, AddInvalid} {
		if o.String() == s {
			return o, true
		}
	}

	return 0, false
}

// AddResult is the typed result of Add.
type AddResult struct {
	Outcome AddOutcome
	// Contact is the stored contact on success.
	Contact *domain.Contact
	// ExistingName is the name of the conflicting contact on AddDuplicate.
	ExistingName string
	// Reason explains AddInvalid.
	Reason error
}

// Registry holds up to domain.MaxContacts emergency contacts.
type Registry struct {
	// store persists the registry under kv.KeyContacts.
	store kv.Store
	// contacts keeps insertion order.
	contacts []*domain.Contact
	// mu protects contacts.
	mu sync.RWMutex
}

// New creates an empty registry.
func New(store kv.Store) *Registry {
	return &Registry{
		store: store,
	}
}

// NormalizePhone keeps only the digits of s. Used for comparison only.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}

		return -1
	}, s)
}

// Load replaces the in-memory registry with the persisted one.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	data, err := r.store.Get(ctx, kv.KeyContacts)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("load contacts: %w", err)
	}

	var loaded []*domain.Contact
	if err = json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode contacts: %w", err)
	}

	if len(loaded) > domain.MaxContacts {
		logger.WarnKV(ctx, "Persisted registry exceeds capacity, dropping extras", "count", len(loaded))
		loaded = loaded[:domain.MaxContacts]
	}

	r.mu.Lock()
	r.contacts = loaded
	r.mu.Unlock()

	return nil
}

// IsDuplicate returns the first contact sharing candidate's phone or email.
func (r *Registry) IsDuplicate(candidate *domain.Contact) (*domain.Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing := r.findDuplicate(candidate, "")
	if existing == nil {
		return nil, false
	}

	return existing.Clone(), true
}

// Add appends candidate after checking capacity, duplicates and validity, in that order.
// The error is only set when the change could not be persisted.
func (r *Registry) Add(ctx context.Context, candidate *domain.Contact) (AddResult, error) {
	r.mu.Lock()

	if len(r.contacts) >= domain.MaxContacts {
		r.mu.Unlock()

		return AddResult{Outcome: AddLimitReached}, nil
	}

	if existing := r.findDuplicate(candidate, ""); existing != nil {
		r.mu.Unlock()

		return AddResult{Outcome: AddDuplicate, ExistingName: existing.Name}, nil
	}

	if err := candidate.Validate(); err != nil {
		r.mu.Unlock()

		return AddResult{Outcome: AddInvalid, Reason: err}, nil
	}

	stored := candidate.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	if stored.Channels == nil {
		stored.Channels = domain.NewChannelSet()
	}

	r.contacts = append(r.contacts, stored)
	snapshot := r.cloneLocked()

	r.mu.Unlock()

	logger.InfoKV(ctx, "Emergency contact added", "contact_id", stored.ID, "name", stored.Name)

	return AddResult{Outcome: AddSuccess, Contact: stored.Clone()}, r.persist(ctx, snapshot)
}

// Update replaces the contact with the same ID. It reports false for unknown IDs.
func (r *Registry) Update(ctx context.Context, contact *domain.Contact) (bool, error) {
	if err := contact.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()

	index := slices.IndexFunc(r.contacts, func(c *domain.Contact) bool { return c.ID == contact.ID })
	if index < 0 {
		r.mu.Unlock()

		return false, nil
	}

	if existing := r.findDuplicate(contact, contact.ID); existing != nil {
		r.mu.Unlock()

		return false, fmt.Errorf("%w: same phone or email as %s", ErrDuplicate, existing.Name)
	}

	r.contacts[index] = contact.Clone()
	snapshot := r.cloneLocked()

	r.mu.Unlock()

	logger.InfoKV(ctx, "Emergency contact updated", "contact_id", contact.ID)

	return true, r.persist(ctx, snapshot)
}

// Remove deletes the contacts at the given positions, keeping the order of
// the rest. Positions out of range are ignored.
func (r *Registry) Remove(ctx context.Context, positions []int) error {
	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		drop[p] = struct{}{}
	}

	r.mu.Lock()

	kept := make([]*domain.Contact, 0, len(r.contacts))

	for i, c := range r.contacts {
		if _, ok := drop[i]; !ok {
			kept = append(kept, c)
		}
	}

	removed := len(r.contacts) - len(kept)
	r.contacts = kept
	snapshot := r.cloneLocked()

	r.mu.Unlock()

	logger.InfoKV(ctx, "Emergency contacts removed", "removed", removed, "remaining", len(snapshot))

	return r.persist(ctx, snapshot)
}

// Snapshot returns copies of all contacts in order.
func (r *Registry) Snapshot() []*domain.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cloneLocked()
}

// ValidContacts returns copies of the contacts that pass validation.
func (r *Registry) ValidContacts() []*domain.Contact {
	all := r.Snapshot()

	return slices.DeleteFunc(all, func(c *domain.Contact) bool { return !c.IsValid() })
}

// RemainingSlots reports how many more contacts can be added.
func (r *Registry) RemainingSlots() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return max(0, domain.MaxContacts-len(r.contacts))
}

// findDuplicate must be called with mu held. The contact with skipID is ignored.
func (r *Registry) findDuplicate(candidate *domain.Contact, skipID string) *domain.Contact {
	phone := strings.TrimSpace(candidate.Phone)
	email := strings.TrimSpace(candidate.Email)

	for _, existing := range r.contacts {
		if skipID != "" && existing.ID == skipID {
			continue
		}

		existingPhone := strings.TrimSpace(existing.Phone)
		if phone != "" && existingPhone != "" && NormalizePhone(existingPhone) == NormalizePhone(phone) {
			return existing
		}

		existingEmail := strings.TrimSpace(existing.Email)
		if email != "" && existingEmail != "" && strings.EqualFold(existingEmail, email) {
			return existing
		}
	}

	return nil
}

func (r *Registry) cloneLocked() []*domain.Contact {
	result := make([]*domain.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		result = append(result, c.Clone())
	}

	return result
}

func (r *Registry) persist(ctx context.Context, contacts []*domain.Contact) error {
	if r.store == nil {
		return nil
	}

	data, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("%w: encode contacts: %w", ErrNotPersisted, err)
	}

	if err = r.store.Set(ctx, kv.KeyContacts, data); err != nil {
		logger.ErrorKV(ctx, "Failed to persist contacts", "error", err)

		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	return nil
}
