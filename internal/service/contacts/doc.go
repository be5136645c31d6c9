// Package contacts implements the bounded emergency contact registry.
//
// Mutations update memory first and then persist; a persistence failure is
// returned as ErrNotPersisted while the in-memory change stays in effect.
package contacts
