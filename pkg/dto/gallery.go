package dto

// GalleryEntryResponse is one gallery object in the admin listing. Enrolled
// is false for images whose extraction failed: persisted, inspectable, but
// never matched against.
type GalleryEntryResponse struct {
	Label    string `json:"label"`
	Key      string `json:"key"`
	Enrolled bool   `json:"enrolled"`
}

type GalleryListResponse struct {
	Entries []GalleryEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
}
