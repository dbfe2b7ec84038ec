package services

import (
	"context"
	"fmt"

	"memberly/internal/models/db_models"
	"memberly/internal/models/request_models"
	"memberly/internal/models/response_models"
	"memberly/internal/repositories"
	"memberly/pkg/utils"
)

type IMemberService interface {
	Register(ctx context.Context, req request_models.RegisterRequest) (*response_models.AuthResponse, error)
	Login(ctx context.Context, req request_models.LoginRequest) (*response_models.AuthResponse, error)
}

type MemberService struct {
	members repositories.IMemberRepository
	orgs    repositories.IOrganizationRepository
	tokens  *utils.TokenManager
}

func NewMemberService(
	members repositories.IMemberRepository,
	orgs repositories.IOrganizationRepository,
	tokens *utils.TokenManager,
) IMemberService {
	return &MemberService{members: members, orgs: orgs, tokens: tokens}
}

func (s *MemberService) Register(ctx context.Context, req request_models.RegisterRequest) (*response_models.AuthResponse, error) {
	org, err := s.orgs.GetByCode(ctx, req.OrganizationCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if org == nil || !org.IsActive {
		return nil, fmt.Errorf("%w: organization %s", utils.ErrNotFound, req.OrganizationCode)
	}

	existing, err := s.members.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", utils.ErrConflict)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	member := &db_models.Member{
		OrganizationID: org.ID,
		Email:          req.Email,
		FullName:       req.FullName,
		PasswordHash:   hash,
		Role:           db_models.RoleMember,
		IsActive:       true,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	return s.issueToken(member)
}

func (s *MemberService) Login(ctx context.Context, req request_models.LoginRequest) (*response_models.AuthResponse, error) {
	member, err := s.members.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if member == nil || !member.IsActive {
		return nil, fmt.Errorf("%w: unknown member", utils.ErrNotFound)
	}
	if err := utils.ComparePasswords(member.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("%w: wrong credentials", utils.ErrValidation)
	}
	return s.issueToken(member)
}

func (s *MemberService) issueToken(member *db_models.Member) (*response_models.AuthResponse, error) {
	token, err := s.tokens.CreateToken(member.ID, member.OrganizationID, member.Role)
	if err != nil {
		return nil, err
	}
	return &response_models.AuthResponse{
		MemberID: member.ID,
		Email:    member.Email,
		Role:     member.Role,
		Token:    token,
	}, nil
}
