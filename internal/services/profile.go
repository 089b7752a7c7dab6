package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"matchdeck-backend/internal/models"
	"matchdeck-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Essential kinds, in display order
const (
	EssentialVerified   = "verified"
	EssentialLocation   = "location"
	EssentialDistance   = "distance"
	EssentialHeight     = "height"
	EssentialOccupation = "occupation"
	EssentialEducation  = "education"
)

// Essential is one line of the essentials card on the profile sheet
type Essential struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// ProfileDetail is the expanded read-only view of a profile
type ProfileDetail struct {
	Profile    models.Profile `json:"profile"`
	Title      string         `json:"title"`
	Subtitle   string         `json:"subtitle,omitempty"`
	LookingFor string         `json:"looking_for,omitempty"`
	About      string         `json:"about"`
	Essentials []Essential    `json:"essentials"`
	Tags       []string       `json:"tags"`
}

// BuildDetail lays out a profile the way the detail sheet shows it
func BuildDetail(p models.Profile) ProfileDetail {
	d := ProfileDetail{
		Profile:    p,
		Title:      p.Name + ", " + strconv.Itoa(p.Age),
		Subtitle:   p.Occupation,
		LookingFor: p.LookingFor,
		About:      p.Bio,
		Tags:       p.Tags,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	if p.IsVerified {
		d.Essentials = append(d.Essentials, Essential{Kind: EssentialVerified, Label: "Photo Verified"})
	}
	d.Essentials = append(d.Essentials,
		Essential{Kind: EssentialLocation, Label: "Lives in " + p.Location},
		Essential{Kind: EssentialDistance, Label: p.Distance},
	)
	if p.Height != "" {
		d.Essentials = append(d.Essentials, Essential{Kind: EssentialHeight, Label: p.Height})
	}
	if p.Occupation != "" {
		d.Essentials = append(d.Essentials, Essential{Kind: EssentialOccupation, Label: p.Occupation})
	}
	if p.Education != "" {
		d.Essentials = append(d.Essentials, Essential{Kind: EssentialEducation, Label: p.Education})
	}

	return d
}

// ProfileService handles profile reads and photo uploads
type ProfileService struct {
	profiles ProfileStore
	photos   PhotoSigner
}

// NewProfileService creates a new profile service. A nil signer serves photo
// keys as stored and disables uploads.
func NewProfileService(profiles ProfileStore, photos PhotoSigner) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		photos:   photos,
	}
}

// Get returns a profile with loadable photo URLs
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	signed := s.Sign(ctx, *p)
	return &signed, nil
}

// Detail returns the expanded profile sheet for a profile id
func (s *ProfileService) Detail(ctx context.Context, id string) (*ProfileDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := BuildDetail(*p)
	return &d, nil
}

// DetailOf builds the sheet for a profile already in hand
func (s *ProfileService) DetailOf(ctx context.Context, p models.Profile) *ProfileDetail {
	d := BuildDetail(s.Sign(ctx, p))
	return &d
}

// Sign returns a copy of p with presigned photo URLs
func (s *ProfileService) Sign(ctx context.Context, p models.Profile) models.Profile {
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if s.photos == nil || len(p.Photos) == 0 {
		return p
	}
	p.Photos = s.photos.SignPhotos(ctx, p.Photos)
	return p
}

// Candidates returns the discovery candidates for a viewer, oldest first
func (s *ProfileService) Candidates(ctx context.Context, viewerID string) ([]models.Profile, error) {
	candidates, err := s.profiles.ListCandidates(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// Many returns the profiles with the given ids keyed by id
func (s *ProfileService) Many(ctx context.Context, ids []string) (map[string]models.Profile, error) {
	profiles, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}

	out := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = s.Sign(ctx, p)
	}
	return out, nil
}

// PresignUpload issues an upload URL for a new photo of the caller's own
// profile and appends its key to the profile.
func (s *ProfileService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if s.photos == nil {
		return nil, ErrUploadsDisabled
	}

	resp, err := s.photos.PresignUpload(ctx, userID, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.AppendPhoto(ctx, userID, resp.Key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to record photo: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Str("key", resp.Key).
		Msg("Photo upload URL issued")

	return resp, nil
}
