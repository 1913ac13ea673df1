package unsplash

// SearchResponse is the body of GET /search/photos
type SearchResponse struct {
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	Results    []PhotoResult `json:"results"`
}

// PhotoResult is one entry of SearchResponse.Results
type PhotoResult struct {
	ID             string     `json:"id"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Description    *string    `json:"description"`
	AltDescription *string    `json:"alt_description"`
	URLs           URLsResult `json:"urls"`
	User           UserResult `json:"user"`
}

// URLsResult holds the optional rendition URLs
type URLsResult struct {
	Raw     *string `json:"raw"`
	Full    *string `json:"full"`
	Regular *string `json:"regular"`
	Small   *string `json:"small"`
	Thumb   *string `json:"thumb"`
	SmallS3 *string `json:"small_s3"`
}

// UserResult is the embedded author
type UserResult struct {
	ID           string             `json:"id"`
	Username     string             `json:"username"`
	Name         string             `json:"name"`
	Bio          *string            `json:"bio"`
	ProfileImage ProfileImageResult `json:"profile_image"`
}

// ProfileImageResult holds the avatar URLs
type ProfileImageResult struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}
