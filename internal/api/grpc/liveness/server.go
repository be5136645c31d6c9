package liveness

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/service/contacts"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	CheckIn(ctx context.Context, actor *domain.Actor) (domain.CheckInEvent, domain.Overview)
	Overview(ctx context.Context) domain.Overview
	Contacts(ctx context.Context) []*domain.Contact
	AddContact(ctx context.Context, contact *domain.Contact) (contacts.AddResult, error)
	RemoveContacts(ctx context.Context, positions []int) ([]*domain.Contact, error)
}

// Server implements LivenessServer.
type Server struct {
	// service provides the business logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// CheckIn records a check-in and returns it with the updated overview.
func (s *Server) CheckIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	event, overview := s.service.CheckIn(ctx, ActorFromStruct(req))

	return CheckInReplyToStruct(event, overview), nil
}

// GetStatus returns the monitor overview.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return OverviewToStruct(s.service.Overview(ctx)), nil
}

// ListContacts returns the registered contacts in order.
func (s *Server) ListContacts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return ContactListToStruct(s.service.Contacts(ctx)), nil
}

// AddContact adds a contact. Rejections are reported in the response, not as errors.
func (s *Server) AddContact(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	contact, err := ContactFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.service.AddContact(ctx, contact)

	reply := AddReply{Result: result}
	if err != nil {
		if !errors.Is(err, contacts.ErrNotPersisted) {
			return nil, status.Error(codes.Internal, "unable to add contact")
		}

		reply.Warning = err.Error()
	}

	return AddReplyToStruct(reply), nil
}

// RemoveContacts removes contacts by position and returns the remaining ones.
func (s *Server) RemoveContacts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	positions, err := PositionsFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	remaining, err := s.service.RemoveContacts(ctx, positions)

	reply := RemoveReply{Contacts: remaining}
	if err != nil {
		if !errors.Is(err, contacts.ErrNotPersisted) {
			return nil, status.Error(codes.Internal, "unable to remove contacts")
		}

		reply.Warning = err.Error()
	}

	return RemoveReplyToStruct(reply), nil
}
