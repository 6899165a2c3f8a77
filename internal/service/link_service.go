package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/linklet/linklet/internal/model"
	"github.com/linklet/linklet/internal/repository"
)

var (
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrLinkNotFound     = errors.New("link not found or expired")
	ErrCodeExists       = errors.New("custom alias already exists")
	ErrInvalidAlias     = errors.New("invalid custom alias format")
	ErrCodeGeneration   = errors.New("failed to generate short code")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordInvalid  = errors.New("invalid password")
)

// LinkService handles owner-facing CRUD over links.
type LinkService struct {
	store       repository.LinkStore
	gate        PasswordGate
	baseURL     string
	codeLen     int
	codeRetries int
}

// LinkServiceInterface defines the contract for link management.
type LinkServiceInterface interface {
	CreateLink(ctx context.Context, req *model.CreateLinkRequest) (*model.CreateLinkResponse, error)
	GetLink(ctx context.Context, code string) (*model.LinkResponse, error)
	UpdateLink(ctx context.Context, code string, req *model.UpdateLinkRequest) (*model.LinkResponse, error)
	DeleteLink(ctx context.Context, code string) error
}

// NewLinkService creates a new link service.
func NewLinkService(store repository.LinkStore, gate PasswordGate, baseURL string, codeLen, codeRetries int) *LinkService {
	return &LinkService{
		store:       store,
		gate:        gate,
		baseURL:     baseURL,
		codeLen:     codeLen,
		codeRetries: codeRetries,
	}
}

// CreateLink creates a new short link. Destination URLs are normalized
// (scheme auto-prepended, non-http(s) rejected) before storage. With
// no custom alias the code is generated randomly, retrying on
// collision up to the configured budget.
func (s *LinkService) CreateLink(ctx context.Context, req *model.CreateLinkRequest) (*model.CreateLinkResponse, error) {
	normalized, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if req.ExpiresIn > 0 {
		t := time.Now().AddDate(0, 0, req.ExpiresIn)
		expiresAt = &t
	}

	var passwordHash *string
	if req.Password != "" {
		h := s.gate.Hash(req.Password)
		passwordHash = &h
	}

	var utm model.UTMParams
	if req.UTM != nil {
		utm = *req.UTM
	}

	newLink := func(code string) *model.Link {
		return &model.Link{
			ID:           uuid.New(),
			ShortCode:    code,
			OriginalURL:  normalized,
			PasswordHash: passwordHash,
			ExpiresAt:    expiresAt,
			UTM:          utm,
			IsActive:     true,
		}
	}

	var link *model.Link
	if req.CustomAlias != "" {
		if err := ValidateAlias(req.CustomAlias); err != nil {
			return nil, err
		}
		link = newLink(req.CustomAlias)
		if err := s.store.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrCodeConflict) {
				return nil, ErrCodeExists
			}
			return nil, err
		}
	} else {
		created := false
		for attempt := 0; attempt < s.codeRetries; attempt++ {
			code, genErr := GenerateCode(s.codeLen)
			if genErr != nil {
				return nil, genErr
			}
			link = newLink(code)
			if err := s.store.Create(ctx, link); err != nil {
				if errors.Is(err, repository.ErrCodeConflict) {
					continue
				}
				return nil, err
			}
			created = true
			break
		}
		if !created {
			return nil, ErrCodeGeneration
		}
	}

	var expiresAtStr string
	if expiresAt != nil {
		expiresAtStr = expiresAt.Format(time.RFC3339)
	}

	return &model.CreateLinkResponse{
		ShortCode: link.ShortCode,
		ShortURL:  s.baseURL + "/" + link.ShortCode,
		ExpiresAt: expiresAtStr,
	}, nil
}

// GetLink retrieves link metadata without touching the click count.
// Owner reads see inactive and expired links.
func (s *LinkService) GetLink(ctx context.Context, code string) (*model.LinkResponse, error) {
	link, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return s.toResponse(link), nil
}

// UpdateLink applies an owner edit. Nil request fields are left
// untouched; an explicit empty password clears protection, and an
// explicit zero expiry clears the expiration.
func (s *LinkService) UpdateLink(ctx context.Context, code string, req *model.UpdateLinkRequest) (*model.LinkResponse, error) {
	link, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if req.URL != nil {
		normalized, err := NormalizeURL(*req.URL)
		if err != nil {
			return nil, err
		}
		link.OriginalURL = normalized
	}
	if req.Password != nil {
		if *req.Password == "" {
			link.PasswordHash = nil
		} else {
			h := s.gate.Hash(*req.Password)
			link.PasswordHash = &h
		}
	}
	if req.ExpiresIn != nil {
		if *req.ExpiresIn <= 0 {
			link.ExpiresAt = nil
		} else {
			t := time.Now().AddDate(0, 0, *req.ExpiresIn)
			link.ExpiresAt = &t
		}
	}
	if req.UTM != nil {
		link.UTM = *req.UTM
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}

	if err := s.store.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return s.toResponse(link), nil
}

// DeleteLink soft-deletes a link.
func (s *LinkService) DeleteLink(ctx context.Context, code string) error {
	if err := s.store.Deactivate(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return nil
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
	var expiresAtStr string
	if link.ExpiresAt != nil {
		expiresAtStr = link.ExpiresAt.Format(time.RFC3339)
	}
	var utm *model.UTMParams
	if !link.UTM.IsZero() {
		u := link.UTM
		utm = &u
	}
	return &model.LinkResponse{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		ShortURL:    s.baseURL + "/" + link.ShortCode,
		Protected:   link.Protected(),
		UTM:         utm,
		ClickCount:  link.ClickCount,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
		ExpiresAt:   expiresAtStr,
	}
}

// Ensure LinkService implements LinkServiceInterface at compile time
var _ LinkServiceInterface = (*LinkService)(nil)
