package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty bounds of a case.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Case is a teaching case: image folders, a reference answer and a
// free-form revision sheet.
type Case struct {
	ID               uuid.UUID           `json:"id"`
	UserID           int                 `json:"user_id"`
	Title            string              `json:"title"`
	Folders          []string            `json:"folders"`
	Images           map[string][]string `json:"images"`
	MainImage        string              `json:"mainImage"`
	FolderMainImages map[string]string   `json:"folderMainImages"`
	Difficulty       int                 `json:"difficulty"`
	Answer           string              `json:"answer"`
	Sheet            string              `json:"sheet"`
	Tags             []string            `json:"tags"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Normalize replaces nil collections with empty ones and clamps the difficulty.
func (c *Case) Normalize() {
	if c.Folders == nil {
		c.Folders = []string{}
	}
	if c.Images == nil {
		c.Images = map[string][]string{}
	}
	if c.FolderMainImages == nil {
		c.FolderMainImages = map[string]string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		c.Difficulty = MinDifficulty
	}
}

// CaseFilter narrows case listings and quiz draws.
type CaseFilter struct {
	Difficulties []int
	Tag          string
}

// DicomSummary is the header digest of an uploaded DICOM file.
type DicomSummary struct {
	Modality         string `json:"modality,omitempty"`
	StudyDescription string `json:"studyDescription,omitempty"`
	BodyPart         string `json:"bodyPart,omitempty"`
	Rows             string `json:"rows,omitempty"`
	Columns          string `json:"columns,omitempty"`
}

// ─── Requests ──────────────────────────────────────────────────────────

// CreateCaseRequest is the payload for creating a case.
type CreateCaseRequest struct {
	Title      string   `json:"title" binding:"required,min=1,max=255"`
	Folders    []string `json:"folders" binding:"omitempty,dive,label,max=100"`
	Difficulty int      `json:"difficulty" binding:"omitempty,min=1,max=5"`
	Tags       []string `json:"tags" binding:"omitempty,dive,label,max=50"`
}

// UpdateCaseRequest patches scalar fields of a case. Nil fields are left untouched.
type UpdateCaseRequest struct {
	Difficulty *int    `json:"difficulty" binding:"omitempty,min=1,max=5"`
	Answer     *string `json:"answer"`
	Sheet      *string `json:"sheet"`
}

// UpdateTagsRequest adds and/or removes one tag.
type UpdateTagsRequest struct {
	TagToAdd    string `json:"tagToAdd" binding:"omitempty,label,max=50"`
	TagToRemove string `json:"tagToRemove" binding:"max=50"`
}

// FolderRequest names a folder of a case.
type FolderRequest struct {
	Folder string `json:"folder" binding:"required,label,max=100"`
}

// ImageRequest addresses one image of a folder.
type ImageRequest struct {
	Folder string `json:"folder" binding:"required"`
	Image  string `json:"image" binding:"required"`
}

// MainImageRequest sets the cover image of a case.
type MainImageRequest struct {
	Image string `json:"image" binding:"required"`
}

// SheetRequest replaces the revision sheet of a case.
type SheetRequest struct {
	Sheet string `json:"sheet"`
}
