package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"greenhaus/internal/domain"
	"greenhaus/internal/repos"
)

type CatalogService struct {
	Plants *repos.PlantRepo
	Images ImageStore // may be nil when the storage service is not configured
}

func NewCatalogService(plants *repos.PlantRepo, images ImageStore) *CatalogService {
	return &CatalogService{Plants: plants, Images: images}
}

func (s *CatalogService) List(q, sort string, buyerView bool, page, pageSize int) ([]domain.Plant, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Plants.List(strings.ToLower(q), sort, buyerView, pageSize, offset)
}

func (s *CatalogService) Get(id string) (domain.Plant, error) {
	return s.Plants.Get(id)
}

// PlantInput carries admin-submitted plant fields; Image is optional raw
// bytes forwarded to the storage service untouched.
type PlantInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Image       []byte
	ImageName   string
}

func (in *PlantInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name", "name is required")
	}
	if in.Price <= 0 {
		return domain.Invalid("price", "price must be greater than zero")
	}
	if in.Stock < 0 {
		return domain.Invalid("stock", "stock cannot be negative")
	}
	return nil
}

// Create adds a plant; when an image is supplied it is uploaded to the
// external store first and the plant is only written after the upload
// succeeds, so a storage failure leaves no local record.
func (s *CatalogService) Create(in PlantInput) (domain.Plant, error) {
	if err := in.validate(); err != nil {
		return domain.Plant{}, err
	}
	p := domain.Plant{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if len(in.Image) > 0 {
		if s.Images == nil {
			return domain.Plant{}, domain.External("upload", fmt.Errorf("image store not configured"))
		}
		url, err := s.Images.UploadImage(in.Image, objectName(p.Name, in.ImageName))
		if err != nil {
			return domain.Plant{}, domain.External("upload", err)
		}
		p.ImageURL = url
	}
	if err := s.Plants.Create(p); err != nil {
		return domain.Plant{}, err
	}
	return p, nil
}

// Update edits a plant; a replacement image is uploaded before the row is
// written and the old object deleted best-effort afterwards.
func (s *CatalogService) Update(id string, in PlantInput) (domain.Plant, error) {
	if err := in.validate(); err != nil {
		return domain.Plant{}, err
	}
	p, err := s.Plants.Get(id)
	if err != nil {
		return domain.Plant{}, err
	}
	oldURL := p.ImageURL
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.Stock = in.Stock
	if len(in.Image) > 0 {
		if s.Images == nil {
			return domain.Plant{}, domain.External("upload", fmt.Errorf("image store not configured"))
		}
		url, err := s.Images.UploadImage(in.Image, objectName(p.Name, in.ImageName))
		if err != nil {
			return domain.Plant{}, domain.External("upload", err)
		}
		p.ImageURL = url
	}
	if err := s.Plants.Update(p); err != nil {
		return domain.Plant{}, err
	}
	if len(in.Image) > 0 && oldURL != "" && oldURL != p.ImageURL && s.Images != nil {
		_, _ = s.Images.DeleteImage(oldURL)
	}
	return p, nil
}

// Delete removes the catalog row and best-effort deletes the stored
// image. Order history is untouched: items snapshot name and price.
func (s *CatalogService) Delete(id string) error {
	p, err := s.Plants.Get(id)
	if err != nil {
		return err
	}
	if err := s.Plants.Delete(id); err != nil {
		return err
	}
	if p.ImageURL != "" && s.Images != nil {
		_, _ = s.Images.DeleteImage(p.ImageURL)
	}
	return nil
}

func objectName(plantName, fileName string) string {
	base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(plantName), " ", "_"))
	if base == "" {
		base = "plant"
	}
	ext := "jpg"
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		ext = strings.ToLower(fileName[i+1:])
	}
	return fmt.Sprintf("%s_%s.%s", base, uuid.NewString()[:8], ext)
}
