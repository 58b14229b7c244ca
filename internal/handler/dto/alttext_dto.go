package dto

import (
	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/makkenzo/alttext-service-api/internal/service"
)

type GenerateAltTextRequest struct {
	ImageID     string `json:"imageId" binding:"omitempty,uuid"`
	StoragePath string `json:"storagePath" binding:"max=8388608"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url,max=2048"`
	Variant     string `json:"variant" binding:"max=32"`
	IsGuest     bool   `json:"isGuest"`
}

// ToServiceRequest assumes the request already passed binding validation.
func (r *GenerateAltTextRequest) ToServiceRequest() service.GenerateRequest {
	req := service.GenerateRequest{
		StoragePath: r.StoragePath,
		ImageURL:    r.ImageURL,
		Variant:     caption.ParseVariant(r.Variant),
		IsGuest:     r.IsGuest,
	}
	if r.ImageID != "" {
		req.ImageID, _ = uuid.Parse(r.ImageID)
	}
	return req
}

type GenerateAltTextResponse struct {
	AltText string `json:"altText"`
	Cached  bool   `json:"cached,omitempty"`
	Guest   bool   `json:"guest,omitempty"`
}

func NewGenerateAltTextResponse(res *service.GenerateResult) GenerateAltTextResponse {
	return GenerateAltTextResponse{
		AltText: res.AltText,
		Cached:  res.Cached,
		Guest:   res.Guest,
	}
}
