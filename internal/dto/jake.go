package dto

// JakeImage describes one stored image slot.
type JakeImage struct {
	ImageNumber int    `json:"image_number"`
	Filename    string `json:"filename"`
	ImageURL    string `json:"image_url"`
}

// UploadedImage is an accepted entry of a batch upload.
type UploadedImage struct {
	OriginalName string `json:"original_name"`
	SavedAs      string `json:"saved_as"`
	ImageNumber  int    `json:"image_number"`
	ImageURL     string `json:"image_url"`
}

// FailedUpload is a rejected entry of a batch upload.
type FailedUpload struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Code     string `json:"code"`
}

// BatchUploadResult reports every entry of a batch upload.
type BatchUploadResult struct {
	Uploaded      []UploadedImage `json:"uploaded_files"`
	Failed        []FailedUpload  `json:"failed_files"`
	TotalUploaded int             `json:"total_uploaded"`
	TotalFailed   int             `json:"total_failed"`
}

// JakeStats summarises the image store.
type JakeStats struct {
	TotalImages      int   `json:"total_images"`
	MaxPossible      *int  `json:"max_possible,omitempty"`
	AvailableNumbers []int `json:"available_numbers"`
}
