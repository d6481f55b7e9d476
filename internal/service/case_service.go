package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/rs/zerolog"
)

// FileStore saves and removes uploaded case files.
type FileStore interface {
	SaveCaseFile(file multipart.File, header *multipart.FileHeader) (StoredFile, error)
	Remove(url string) error
}

// CaseService manages teaching cases and their image folders.
type CaseService struct {
	repo  CaseStore
	files FileStore
	log   zerolog.Logger
}

// NewCaseService creates a new CaseService.
func NewCaseService(repo CaseStore, files FileStore, log zerolog.Logger) *CaseService {
	return &CaseService{
		repo:  repo,
		files: files,
		log:   log.With().Str("component", "case_service").Logger(),
	}
}

// List returns the cases of a user matching f.
func (s *CaseService) List(ctx context.Context, userID int, f model.CaseFilter) ([]model.Case, error) {
	cases, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []model.Case{}
	}
	return cases, nil
}

// Create stores a new case.
func (s *CaseService) Create(ctx context.Context, userID int, req model.CreateCaseRequest) (*model.Case, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	c := &model.Case{
		ID:         id,
		UserID:     userID,
		Title:      req.Title,
		Difficulty: req.Difficulty,
		Images:     map[string][]string{},
	}
	for _, f := range req.Folders {
		if !slices.Contains(c.Folders, f) {
			c.Folders = append(c.Folders, f)
			c.Images[f] = []string{}
		}
	}
	for _, t := range req.Tags {
		if !slices.Contains(c.Tags, t) {
			c.Tags = append(c.Tags, t)
		}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

// Get returns one case.
func (s *CaseService) Get(ctx context.Context, id uuid.UUID, userID int) (*model.Case, error) {
	c, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Delete removes a case and its stored files.
func (s *CaseService) Delete(ctx context.Context, id uuid.UUID, userID int) error {
	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return notFound(err)
	}
	s.removeFiles(caseFiles(c)...)
	return nil
}

// caseFiles lists every file a case references, covers included, once each.
func caseFiles(c *model.Case) []string {
	var urls []string
	add := func(u string) {
		if u != "" && !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	for _, f := range c.Folders {
		for _, u := range c.Images[f] {
			add(u)
		}
	}
	for _, imgs := range c.Images {
		for _, u := range imgs {
			add(u)
		}
	}
	add(c.MainImage)
	for _, u := range c.FolderMainImages {
		add(u)
	}
	return urls
}

// Update patches difficulty, answer and sheet.
func (s *CaseService) Update(ctx context.Context, id uuid.UUID, userID int, req model.UpdateCaseRequest) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		if req.Difficulty != nil {
			c.Difficulty = *req.Difficulty
		}
		if req.Answer != nil {
			c.Answer = *req.Answer
		}
		if req.Sheet != nil {
			c.Sheet = *req.Sheet
		}
		return nil
	})
}

// UpdateTags adds and removes one tag each. Adding an existing tag is a no-op.
func (s *CaseService) UpdateTags(ctx context.Context, id uuid.UUID, userID int, add, remove string) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		if add != "" && !slices.Contains(c.Tags, add) {
			c.Tags = append(c.Tags, add)
		}
		if remove != "" {
			c.Tags = slices.DeleteFunc(c.Tags, func(t string) bool { return t == remove })
		}
		return nil
	})
}

// AddFolder creates an empty image folder.
func (s *CaseService) AddFolder(ctx context.Context, id uuid.UUID, userID int, folder string) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		if slices.Contains(c.Folders, folder) {
			return nil
		}
		c.Folders = append(c.Folders, folder)
		c.Images[folder] = []string{}
		return nil
	})
}

// DeleteFolder removes a folder with all its images and its cover.
func (s *CaseService) DeleteFolder(ctx context.Context, id uuid.UUID, userID int, folder string) (*model.Case, error) {
	var dropped []string
	c, err := s.mutate(ctx, id, userID, func(c *model.Case) error {
		i := slices.Index(c.Folders, folder)
		if i < 0 {
			return ErrFolderNotFound
		}
		dropped = slices.Clone(c.Images[folder])
		if cover := c.FolderMainImages[folder]; cover != "" && !slices.Contains(dropped, cover) {
			dropped = append(dropped, cover)
		}
		c.Folders = slices.Delete(c.Folders, i, i+1)
		delete(c.Images, folder)
		delete(c.FolderMainImages, folder)
		if slices.Contains(dropped, c.MainImage) {
			c.MainImage = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, u := range dropped {
		if !referenced(c, u) {
			s.removeFiles(u)
		}
	}
	return c, nil
}

// UploadImages stores files and appends them to a folder. Stored files are
// removed again when the case cannot be updated.
func (s *CaseService) UploadImages(ctx context.Context, id uuid.UUID, userID int, folder string, headers []*multipart.FileHeader) (*model.Case, []StoredFile, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, nil, err
	}

	stored := make([]StoredFile, 0, len(headers))
	for _, h := range headers {
		sf, err := s.saveOne(h)
		if err != nil {
			s.removeStored(stored)
			return nil, nil, err
		}
		stored = append(stored, sf)
	}

	c, err := s.mutate(ctx, id, userID, func(c *model.Case) error {
		if !slices.Contains(c.Folders, folder) {
			return ErrFolderNotFound
		}
		for _, sf := range stored {
			c.Images[folder] = append(c.Images[folder], sf.URL)
		}
		return nil
	})
	if err != nil {
		s.removeStored(stored)
		return nil, nil, err
	}
	return c, stored, nil
}

func (s *CaseService) saveOne(h *multipart.FileHeader) (StoredFile, error) {
	f, err := h.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.files.SaveCaseFile(f, h)
}

// DeleteImage removes one image from a folder.
func (s *CaseService) DeleteImage(ctx context.Context, id uuid.UUID, userID int, folder, image string) (*model.Case, error) {
	c, err := s.mutate(ctx, id, userID, func(c *model.Case) error {
		imgs, ok := c.Images[folder]
		if !ok {
			return ErrFolderNotFound
		}
		i := slices.Index(imgs, image)
		if i < 0 {
			return ErrImageNotFound
		}
		c.Images[folder] = slices.Delete(slices.Clone(imgs), i, i+1)
		if c.MainImage == image {
			c.MainImage = ""
		}
		if c.FolderMainImages[folder] == image {
			delete(c.FolderMainImages, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.removeFiles(image)
	return c, nil
}

// SetMainImage sets the cover image of a case. The image must belong to one of its folders.
func (s *CaseService) SetMainImage(ctx context.Context, id uuid.UUID, userID int, image string) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		for _, imgs := range c.Images {
			if slices.Contains(imgs, image) {
				c.MainImage = image
				return nil
			}
		}
		return ErrImageNotFound
	})
}

// SetFolderMainImage sets the cover image of a folder.
func (s *CaseService) SetFolderMainImage(ctx context.Context, id uuid.UUID, userID int, folder, image string) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		imgs, ok := c.Images[folder]
		if !ok {
			return ErrFolderNotFound
		}
		if !slices.Contains(imgs, image) {
			return ErrImageNotFound
		}
		c.FolderMainImages[folder] = image
		return nil
	})
}

// UploadCover stores a file and makes it the cover of the case, or of
// folder when folder is not empty. A replaced cover that no folder
// references is removed.
func (s *CaseService) UploadCover(ctx context.Context, id uuid.UUID, userID int, folder string, h *multipart.FileHeader) (*model.Case, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	sf, err := s.saveOne(h)
	if err != nil {
		return nil, err
	}

	var previous string
	c, err := s.mutate(ctx, id, userID, func(c *model.Case) error {
		if folder == "" {
			previous, c.MainImage = c.MainImage, sf.URL
			return nil
		}
		if !slices.Contains(c.Folders, folder) {
			return ErrFolderNotFound
		}
		previous = c.FolderMainImages[folder]
		c.FolderMainImages[folder] = sf.URL
		return nil
	})
	if err != nil {
		s.removeFiles(sf.URL)
		return nil, err
	}
	if previous != "" && !referenced(c, previous) {
		s.removeFiles(previous)
	}
	return c, nil
}

// referenced reports whether url is still used by c.
func referenced(c *model.Case, url string) bool {
	if c.MainImage == url {
		return true
	}
	for _, imgs := range c.Images {
		if slices.Contains(imgs, url) {
			return true
		}
	}
	for _, u := range c.FolderMainImages {
		if u == url {
			return true
		}
	}
	return false
}

// SaveSheet replaces the revision sheet.
func (s *CaseService) SaveSheet(ctx context.Context, id uuid.UUID, userID int, sheet string) (*model.Case, error) {
	return s.mutate(ctx, id, userID, func(c *model.Case) error {
		c.Sheet = sheet
		return nil
	})
}

// Quiz draws a random case matching f.
func (s *CaseService) Quiz(ctx context.Context, userID int, f model.CaseFilter) (*model.Case, error) {
	c, err := s.repo.Random(ctx, userID, f)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCaseMatches
		}
		return nil, err
	}
	return c, nil
}

func (s *CaseService) mutate(ctx context.Context, id uuid.UUID, userID int, fn func(*model.Case) error) (*model.Case, error) {
	c, err := s.repo.Mutate(ctx, id, userID, fn)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *CaseService) removeStored(stored []StoredFile) {
	for _, sf := range stored {
		s.removeFiles(sf.URL)
	}
}

func (s *CaseService) removeFiles(urls ...string) {
	for _, u := range urls {
		if err := s.files.Remove(u); err != nil {
			s.log.Warn().Err(err).Str("url", u).Msg("File cleanup failed")
		}
	}
}
