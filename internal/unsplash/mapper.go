package unsplash

import "github.com/mmcdole/shutter/internal/domain"

// MapPage converts a search response to a domain page
func MapPage(resp *SearchResponse, pageIndex int) *domain.Page {
	return &domain.Page{
		Index:      pageIndex,
		Total:      resp.Total,
		TotalPages: resp.TotalPages,
		Results:    MapPhotos(resp.Results),
	}
}

// MapPhotos converts photo results to domain photos
func MapPhotos(results []PhotoResult) []domain.Photo {
	photos := make([]domain.Photo, 0, len(results))
	for _, r := range results {
		photos = append(photos, MapPhoto(r))
	}
	return photos
}

// MapPhoto converts a single photo result
func MapPhoto(r PhotoResult) domain.Photo {
	return domain.Photo{
		ID:             r.ID,
		Width:          r.Width,
		Height:         r.Height,
		Description:    deref(r.Description),
		AltDescription: deref(r.AltDescription),
		URLs: domain.PhotoURLs{
			Raw:     deref(r.URLs.Raw),
			Full:    deref(r.URLs.Full),
			Regular: deref(r.URLs.Regular),
			Small:   deref(r.URLs.Small),
			Thumb:   deref(r.URLs.Thumb),
			SmallS3: deref(r.URLs.SmallS3),
		},
		User: domain.User{
			ID:       r.User.ID,
			Username: r.User.Username,
			Name:     r.User.Name,
			Bio:      deref(r.User.Bio),
			ProfileImage: domain.ProfileImage{
				Small:  r.User.ProfileImage.Small,
				Medium: r.User.ProfileImage.Medium,
				Large:  r.User.ProfileImage.Large,
			},
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
